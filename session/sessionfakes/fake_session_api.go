package sessionfakes

import (
	"context"
	"sync"

	"github.com/tempora-io/tempora-desktop/api"
	"github.com/tempora-io/tempora-desktop/internal/utils"
	"github.com/tempora-io/tempora-desktop/session"
)

var _ session.SessionAPI = (*FakeSessionAPI)(nil)

// FakeSessionAPI is a scripted session API for tests.
type FakeSessionAPI struct {
	lock sync.Mutex

	Record           *api.SessionRecord
	CreateSessionErr error
	LogoutErr        error

	CreateSessionCalls int
	LogoutCalls        int
}

func NewFakeSessionAPI() *FakeSessionAPI {
	return &FakeSessionAPI{}
}

func (f *FakeSessionAPI) CreateSession(ctx context.Context, subjectID string) (*api.SessionRecord, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.CreateSessionCalls++
	if f.CreateSessionErr != nil {
		return nil, f.CreateSessionErr
	}
	if f.Record != nil {
		return f.Record, nil
	}
	return &api.SessionRecord{
		ID:        "session-" + subjectID,
		IPAddress: utils.Ptr("127.0.0.1"),
		IsCurrent: true,
	}, nil
}

func (f *FakeSessionAPI) Logout(ctx context.Context, subjectID string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.LogoutCalls++
	return f.LogoutErr
}

// FakeReloader records reload requests instead of restarting anything.
type FakeReloader struct {
	lock  sync.Mutex
	calls int
}

var _ session.Reloader = (*FakeReloader)(nil)

func NewFakeReloader() *FakeReloader {
	return &FakeReloader{}
}

func (f *FakeReloader) Reload() {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls++
}

func (f *FakeReloader) Reloads() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.calls
}
