package fileid

import (
	"errors"
	"fmt"
)

// Kind categorizes why a path was rejected.
type Kind int

const (
	// TypeKind: the value handed in was not a Path.
	TypeKind Kind = iota + 1
	// SymlinkKind: the path is a symbolic link.
	SymlinkKind
	// NotAFileKind: the resolved path is not an existing regular file.
	NotAFileKind
)

func (k Kind) String() string {
	switch k {
	case TypeKind:
		return "type"
	case SymlinkKind:
		return "symlink"
	case NotAFileKind:
		return "not_a_file"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is; an *Error matches the sentinel of its Kind.
var (
	ErrType     = errors.New("fileid: wrong path type")
	ErrSymlink  = errors.New("fileid: symlink")
	ErrNotAFile = errors.New("fileid: not a file")
)

// Error is returned for every rejected input. Rejections never modify assigner state.
type Error struct {
	Kind Kind
	Path string
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrType:
		return e.Kind == TypeKind
	case ErrSymlink:
		return e.Kind == SymlinkKind
	case ErrNotAFile:
		return e.Kind == NotAFileKind
	}
	return false
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func typeError(v any) *Error {
	return &Error{
		Kind: TypeKind,
		msg:  fmt.Sprintf("file path must be a fileid.Path; got %T", v),
	}
}

func symlinkError(path string) *Error {
	return &Error{
		Kind: SymlinkKind,
		Path: path,
		msg:  fmt.Sprintf("%s is a symlink; must be an actual path", path),
	}
}

func notAFileError(path string) *Error {
	return &Error{
		Kind: NotAFileKind,
		Path: path,
		msg:  fmt.Sprintf("%s is not a file", path),
	}
}
