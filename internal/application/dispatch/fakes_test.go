package dispatch

import (
	"context"
	"sync"

	"github.com/baechuer/buyway-mail/internal/domain"
)

// callLog records the order in which transports were hit.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, s)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeTransport struct {
	name string
	log  *callLog
	err  error
	// block makes Send wait for ctx to end
	block bool

	mu   sync.Mutex
	sent []*domain.Message
}

func (f *fakeTransport) Name() string { return f.name }

func (f *fakeTransport) Send(ctx context.Context, msg *domain.Message) error {
	f.log.add("send:" + f.name)
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func (f *fakeTransport) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type verifyingTransport struct {
	fakeTransport
	verifyErr error
}

func (v *verifyingTransport) Verify(ctx context.Context) error {
	v.log.add("verify:" + v.name)
	return v.verifyErr
}

type temporaryErr struct{ msg string }

func (e temporaryErr) Error() string   { return e.msg }
func (e temporaryErr) Temporary() bool { return true }
