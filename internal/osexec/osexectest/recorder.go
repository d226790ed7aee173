// Package osexectest provides a Runner that records commands instead of
// executing them.
package osexectest

import (
	"context"
	"errors"
	"strings"
	"sync"
)

type Call struct {
	Name string
	Args []string
}

func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Recorder answers Output calls from a table keyed by the full command line
// and fails Run/Start for anything listed in Fail.
type Recorder struct {
	mu sync.Mutex

	Calls   []Call
	Outputs map[string]string
	Fail    map[string]error
	Tools   map[string]bool
}

func (r *Recorder) record(name string, args []string) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := Call{Name: name, Args: append([]string(nil), args...)}
	r.Calls = append(r.Calls, c)
	if err, ok := r.Fail[c.String()]; ok {
		return c, err
	}
	return c, nil
}

func (r *Recorder) Run(_ context.Context, name string, args ...string) error {
	_, err := r.record(name, args)
	return err
}

func (r *Recorder) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	c, err := r.record(name, args)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	out, ok := r.Outputs[c.String()]
	if !ok {
		return nil, errors.New("osexectest: no output for " + c.String())
	}
	return []byte(out), nil
}

func (r *Recorder) Start(name string, args ...string) error {
	_, err := r.record(name, args)
	return err
}

func (r *Recorder) LookPath(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Tools[name] {
		return "/usr/bin/" + name, nil
	}
	return "", errors.New("osexectest: " + name + " not found")
}

// Lines returns every recorded call rendered as a command line.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.Calls))
	for _, c := range r.Calls {
		out = append(out, c.String())
	}
	return out
}

// Set installs the output for a command line and returns r.
func (r *Recorder) Set(cmdline, out string) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Outputs == nil {
		r.Outputs = make(map[string]string)
	}
	r.Outputs[cmdline] = out
	return r
}
