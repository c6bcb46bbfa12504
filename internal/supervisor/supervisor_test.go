package supervisor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cornerbit/hiksink/internal/bus"
	"github.com/cornerbit/hiksink/internal/manager"
	"github.com/cornerbit/hiksink/internal/topics"
)

type fakePublisher struct {
	mu        sync.Mutex
	published []manager.Message
	connected chan struct{}
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{connected: make(chan struct{}, 1)}
}

func (f *fakePublisher) Publish(msg manager.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, msg)
	return nil
}

func (f *fakePublisher) Connected() <-chan struct{} { return f.connected }

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func TestForwardPublishesOnConnectedSignal(t *testing.T) {
	m := manager.New([]manager.CameraConfig{{ID: "cam1", Name: "Camera 1"}}, topics.DefaultScheme(), nil)
	pub := newFakePublisher()
	s := New(nil, m, pub, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.forward(ctx)
		close(done)
	}()

	pub.connected <- struct{}{}

	require.Eventually(t, func() bool { return pub.count() > 0 }, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestForwardPublishesBusEvents(t *testing.T) {
	m := manager.New([]manager.CameraConfig{{ID: "cam1", Name: "Camera 1"}}, topics.DefaultScheme(), nil)
	pub := newFakePublisher()
	s := New(nil, m, pub, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.forward(ctx)
		close(done)
	}()

	s.bus.Send(ctx, bus.CameraEvent{
		CameraID: "cam1",
		Kind:     bus.Disconnected,
	})

	require.Eventually(t, func() bool { return pub.count() > 0 }, time.Second, time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, "hikvision_cameras/device_cam1/log", pub.published[0].Topic)
}

func TestStopAllCancelsEveryWorker(t *testing.T) {
	m := manager.New(nil, topics.DefaultScheme(), nil)
	pub := newFakePublisher()
	s := New(nil, m, pub, nil)

	_, cancelA := context.WithCancel(context.Background())
	_, cancelB := context.WithCancel(context.Background())
	s.workers["a"] = cancelA
	s.workers["b"] = cancelB

	s.stopAll()

	assert.Empty(t, s.workers)
}
