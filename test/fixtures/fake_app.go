// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// FakeApp is a throwaway process with a distinctive name, standing in for a
// designated app. It is a copy of sleep(1) so process-name matching sees Name.
type FakeApp struct {
	Dir  string
	Name string

	cmd  *exec.Cmd
	done chan struct{}
}

// NewFakeApp creates a fake app that will live in dir. Keep name under 15
// characters; Linux truncates process names beyond that.
func NewFakeApp(dir, name string) *FakeApp {
	return &FakeApp{Dir: dir, Name: name}
}

// Path returns the fake binary location.
func (f *FakeApp) Path() string {
	return filepath.Join(f.Dir, f.Name)
}

// Install copies the sleep binary under the fake name.
func (f *FakeApp) Install() error {
	src, err := exec.LookPath("sleep")
	if err != nil {
		return fmt.Errorf("sleep not found: %w", err)
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(f.Path(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Launch starts the fake app. It runs until killed or Stop is called.
func (f *FakeApp) Launch() error {
	if f.Running() {
		return fmt.Errorf("%s already running", f.Name)
	}
	cmd := exec.Command(f.Path(), "600")
	if err := cmd.Start(); err != nil {
		return err
	}
	f.cmd = cmd
	f.done = make(chan struct{})
	go func(done chan struct{}) {
		_ = cmd.Wait()
		close(done)
	}(f.done)
	return nil
}

// Running reports whether the last launched process is still alive.
func (f *FakeApp) Running() bool {
	if f.done == nil {
		return false
	}
	select {
	case <-f.done:
		return false
	default:
		return true
	}
}

// WaitExit blocks until the process exits or timeout passes.
func (f *FakeApp) WaitExit(timeout time.Duration) bool {
	if f.done == nil {
		return true
	}
	select {
	case <-f.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Stop kills the process if it is still running.
func (f *FakeApp) Stop() {
	if f.Running() {
		_ = f.cmd.Process.Kill()
		f.WaitExit(5 * time.Second)
	}
}
