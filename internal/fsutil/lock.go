package fsutil

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/conn-castle/m/internal/messages"
)

var (
	flockFn   = unix.Flock
	lockSleep = time.Sleep
	getpid    = os.Getpid
)

var (
	lockWaitTimeout = 30 * time.Second
	lockPollEvery   = 100 * time.Millisecond
)

// WriterLock serializes writers of one piece of on-disk state, such as a
// family's version store or the hook registry. Readers never take it; they
// rely on rename-based commits. The holder's pid is written into the lock
// file so a waiter that gives up can say who is in the way.
type WriterLock struct {
	// Path is the lock file.
	Path string
	// Resource names the guarded state in errors, e.g. "server store".
	Resource string
}

// Do runs fn while holding the lock.
func (l WriterLock) Do(fn func() error) error {
	file, err := os.OpenFile(l.Path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf(messages.FsutilOpenLockFmt, l.Resource, l.Path, err)
	}
	defer func() { _ = file.Close() }()

	if err := l.acquire(file); err != nil {
		return err
	}
	defer func() {
		_ = file.Truncate(0)
		_ = flockFn(int(file.Fd()), unix.LOCK_UN)
	}()
	if err := file.Truncate(0); err == nil {
		_, _ = file.WriteAt([]byte(strconv.Itoa(getpid())+"\n"), 0)
	}
	return fn()
}

// acquire polls for an exclusive lock until lockWaitTimeout elapses.
func (l WriterLock) acquire(file *os.File) error {
	deadline := time.Now().Add(lockWaitTimeout)
	for {
		err := flockFn(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EAGAIN) {
			return fmt.Errorf(messages.FsutilLockFmt, l.Resource, l.Path, err)
		}
		if time.Now().After(deadline) {
			return l.timeout()
		}
		lockSleep(lockPollEvery)
	}
}

func (l WriterLock) timeout() error {
	data, err := os.ReadFile(l.Path)
	if err == nil {
		if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && pid > 0 {
			return fmt.Errorf(messages.FsutilLockHeldByFmt, l.Resource, lockWaitTimeout, pid)
		}
	}
	return fmt.Errorf(messages.FsutilLockTimeoutFmt, l.Resource, lockWaitTimeout)
}
