package dialogue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

var ErrNoReply = errors.New("dialogue: script produced no reply")

// Loader returns the source of a named script.
type Loader func(name string) ([]byte, error)

// The script must define reply(input, memory) returning a string. memory is
// a map kept for the length of one conversation.
const replyDispatch = `
__reply = reply(__input, __memory)
`

type script struct {
	compiled *tengo.Compiled
	memory   *tengo.Map
}

// Runtime compiles NPC scripts on first use and answers player lines.
type Runtime struct {
	load    Loader
	scripts map[string]*script
}

func NewRuntime(load Loader) *Runtime {
	return &Runtime{load: load, scripts: make(map[string]*script)}
}

// Begin starts a fresh conversation with name, compiling it if needed.
func (r *Runtime) Begin(name string) error {
	s, err := r.get(name)
	if err != nil {
		return err
	}
	s.memory = newMemory()
	return nil
}

// Reply runs the script with input and returns its answer.
func (r *Runtime) Reply(name, input string) (string, error) {
	s, err := r.get(name)
	if err != nil {
		return "", err
	}

	if err := s.compiled.Set("__input", input); err != nil {
		return "", fmt.Errorf("dialogue: %s: %w", name, err)
	}
	if err := s.compiled.Set("__memory", s.memory); err != nil {
		return "", fmt.Errorf("dialogue: %s: %w", name, err)
	}
	if err := s.compiled.Set("__reply", ""); err != nil {
		return "", fmt.Errorf("dialogue: %s: %w", name, err)
	}
	if err := s.compiled.Run(); err != nil {
		return "", fmt.Errorf("dialogue: run %s: %w", name, err)
	}

	out := strings.TrimSpace(s.compiled.Get("__reply").String())
	if out == "" {
		return "", fmt.Errorf("%w: %s", ErrNoReply, name)
	}
	return out, nil
}

// Forget drops a compiled script so the next use reloads it.
func (r *Runtime) Forget(name string) {
	if r == nil {
		return
	}
	delete(r.scripts, name)
}

func (r *Runtime) get(name string) (*script, error) {
	if r == nil || r.load == nil {
		return nil, fmt.Errorf("dialogue: no script loader")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("dialogue: empty script name")
	}
	if s, ok := r.scripts[name]; ok {
		return s, nil
	}

	src, err := r.load(name)
	if err != nil {
		return nil, fmt.Errorf("dialogue: load %s: %w", name, err)
	}

	sc := tengo.NewScript(append(append([]byte(nil), src...), replyDispatch...))
	_ = sc.Add("__input", "")
	_ = sc.Add("__memory", map[string]any{})
	_ = sc.Add("__reply", "")
	sc.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := sc.Compile()
	if err != nil {
		return nil, fmt.Errorf("dialogue: compile %s: %w", name, err)
	}

	s := &script{compiled: compiled, memory: newMemory()}
	r.scripts[name] = s
	return s, nil
}

func newMemory() *tengo.Map {
	return &tengo.Map{Value: map[string]tengo.Object{}}
}
