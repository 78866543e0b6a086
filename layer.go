// FILE: lixenwraith/spice/layer.go
package spice

//go:generate mockgen -source=layer.go -destination=internal/mock/layer_mock.go -package=mock

import "strconv"

// Priority orders layers. Higher priorities shadow lower ones; only the relative
// order matters.
type Priority int

const (
	PriorityDefaults Priority = 0
	PriorityFile     Priority = 100
	PriorityEnv      Priority = 200
	PriorityFlags    Priority = 300
	PriorityExplicit Priority = 400
)

func (p Priority) String() string {
	switch p {
	case PriorityDefaults:
		return "defaults"
	case PriorityFile:
		return "file"
	case PriorityEnv:
		return "env"
	case PriorityFlags:
		return "flags"
	case PriorityExplicit:
		return "explicit"
	}
	return strconv.Itoa(int(p))
}

// Layer is a named, prioritized source of configuration values.
//
// Get performs an exact lookup of a normalized key: no prefix matching. A missing
// key is reported with ok == false and a nil error; err is reserved for layers that
// could not answer at all. Keys lists every key Get would answer.
type Layer interface {
	Name() string
	Priority() Priority
	Get(key string) (Value, bool, error)
	Keys() []string
}
