package check

import (
	"runtime"
	"sync"
	"unsafe"

	"go.elara.ws/pcre/lib"
	"modernc.org/libc"
	"modernc.org/libc/sys/types"
)

// pcreMatchLimit bounds the backtracking work of one PCRE search.
var pcreMatchLimit uint32 = 10_000_000

// pcreUnset marks a capture group that did not participate.
const pcreUnset = ^lib.Tsize_t(0)

// compileFailure mirrors the two out-parameters of pcre2_compile.
type compileFailure struct {
	code   int32
	offset lib.Tsize_t
}

// pcreProgram searches a compiled PCRE2 pattern from an arbitrary start
// offset of the whole subject, so lookbehind and \b see the text before the
// offset. Searches are serialised on mu; the engine state is not reentrant.
type pcreProgram struct {
	source string

	mu    sync.Mutex
	tls   *libc.TLS
	code  uintptr
	mctx  uintptr
	md    uintptr
	pairs int
}

func newPCREProgram(pattern string) (*pcreProgram, error) {
	tls := libc.NewTLS()
	cPattern, err := libc.CString(pattern)
	if err != nil {
		tls.Close()
		return nil, err
	}
	defer libc.Xfree(tls, cPattern)

	var cf compileFailure
	cErr := libc.Xmalloc(tls, types.Size_t(unsafe.Sizeof(cf)))
	defer libc.Xfree(tls, cErr)

	code := lib.Xpcre2_compile_8(tls, cPattern, lib.Tsize_t(len(pattern)), 0,
		cErr+unsafe.Offsetof(cf.code), cErr+unsafe.Offsetof(cf.offset), 0)
	if code == 0 {
		cf = *(*compileFailure)(unsafe.Pointer(cErr))
		msg := pcreMessage(tls, cf.code)
		tls.Close()
		return nil, &MatchError{Pattern: pattern, Message: msg}
	}

	p := &pcreProgram{
		source: pattern,
		tls:    tls,
		code:   code,
		mctx:   lib.Xpcre2_match_context_create_8(tls, 0),
		md:     lib.Xpcre2_match_data_create_from_pattern_8(tls, code, 0),
	}
	lib.Xpcre2_set_match_limit_8(tls, p.mctx, pcreMatchLimit)
	p.pairs = int(lib.Xpcre2_get_ovector_count_8(tls, p.md))
	runtime.SetFinalizer(p, (*pcreProgram).free)
	return p, nil
}

// numSubexp is the number of capture groups.
func (p *pcreProgram) numSubexp() int { return p.pairs - 1 }

// searchFrom returns the submatch indexes of the leftmost match starting at
// or after offset, nil when there is none.
func (p *pcreProgram) searchFrom(text string, offset int) ([]int, error) {
	var subject uintptr
	if len(text) > 0 {
		subject = uintptr(unsafe.Pointer(unsafe.StringData(text)))
	} else {
		subject = uintptr(unsafe.Pointer(&emptySubject[0]))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ret := lib.Xpcre2_match_8(p.tls, p.code, subject, lib.Tsize_t(len(text)), lib.Tsize_t(offset), 0, p.md, p.mctx)
	runtime.KeepAlive(text)
	if ret == lib.DPCRE2_ERROR_NOMATCH {
		return nil, nil
	}
	if ret < 0 {
		return nil, &MatchError{Pattern: p.source, Message: pcreMessage(p.tls, ret)}
	}

	ovec := unsafe.Slice((*lib.Tsize_t)(unsafe.Pointer(lib.Xpcre2_get_ovector_pointer_8(p.tls, p.md))), p.pairs*2)
	loc := make([]int, len(ovec))
	for i, v := range ovec {
		if v == pcreUnset || i >= int(ret)*2 {
			loc[i] = -1
			continue
		}
		loc[i] = int(v)
	}
	return loc, nil
}

func (p *pcreProgram) free() {
	lib.Xpcre2_match_data_free_8(p.tls, p.md)
	lib.Xpcre2_match_context_free_8(p.tls, p.mctx)
	lib.Xpcre2_code_free_8(p.tls, p.code)
	p.tls.Close()
}

// emptySubject gives pcre2_match a valid pointer for zero-length texts.
var emptySubject = [1]byte{}

func pcreMessage(tls *libc.TLS, code int32) string {
	buf := libc.Xmalloc(tls, 256)
	defer libc.Xfree(tls, buf)
	n := lib.Xpcre2_get_error_message_8(tls, code, buf, 256)
	if n < 0 {
		return "pcre2 error"
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(buf)), n))
}
