package task_tracker_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"clausewise.app/review/internal/service/task_tracker"
	"clausewise.app/review/internal/task"
)

type fakeCache struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	if c.getErr != nil {
		return "", false, c.getErr
	}
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.values[key] = value
	c.ttls[key] = ttl
	return nil
}

type fakeTracker struct {
	accounts map[string]string
	err      error
	lookups  int
	created  []task.Record
}

func (t *fakeTracker) Name() string { return "fake" }

func (t *fakeTracker) LookupUser(_ context.Context, email string) (string, bool, error) {
	t.lookups++
	if t.err != nil {
		return "", false, t.err
	}
	id, ok := t.accounts[email]
	return id, ok, nil
}

func (t *fakeTracker) CreateTask(_ context.Context, record task.Record) (*task_tracker.CreatedTask, error) {
	t.created = append(t.created, record)
	return &task_tracker.CreatedTask{ID: "t-1"}, nil
}

var _ = Describe("WithDirectoryCache", func() {
	var (
		ctx     context.Context
		cache   *fakeCache
		inner   *fakeTracker
		tracker task_tracker.Tracker
	)

	BeforeEach(func() {
		ctx = context.Background()
		cache = newFakeCache()
		inner = &fakeTracker{accounts: map[string]string{"jane.doe@x.com": "u-1"}}
		tracker = task_tracker.WithDirectoryCache(inner, cache, time.Hour)
	})

	It("stores a hit and serves it afterwards", func() {
		for range 2 {
			id, found, err := tracker.LookupUser(ctx, "jane.doe@x.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(id).To(Equal("u-1"))
		}

		Expect(inner.lookups).To(Equal(1))
		key := task_tracker.DirectoryKey("fake", "jane.doe@x.com")
		Expect(cache.values).To(HaveKeyWithValue(key, "u-1"))
		Expect(cache.ttls).To(HaveKeyWithValue(key, time.Hour))
	})

	It("does not cache misses", func() {
		for range 2 {
			_, found, err := tracker.LookupUser(ctx, "nobody@x.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())
		}

		Expect(inner.lookups).To(Equal(2))
		Expect(cache.values).To(BeEmpty())
	})

	It("passes tracker errors through", func() {
		inner.err = errors.New("rate limited")

		_, _, err := tracker.LookupUser(ctx, "jane.doe@x.com")

		Expect(err).To(MatchError("rate limited"))
		Expect(cache.values).To(BeEmpty())
	})

	It("falls through to the tracker when the cache fails", func() {
		cache.getErr = errors.New("redis down")
		cache.setErr = errors.New("redis down")

		id, found, err := tracker.LookupUser(ctx, "jane.doe@x.com")

		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(id).To(Equal("u-1"))
	})

	It("delegates task creation", func() {
		created, err := tracker.CreateTask(ctx, task.Record{})

		Expect(err).NotTo(HaveOccurred())
		Expect(created.ID).To(Equal("t-1"))
		Expect(inner.created).To(HaveLen(1))
		Expect(tracker.Name()).To(Equal("fake"))
	})
})

var _ = Describe("DirectoryKey", func() {
	It("normalizes the email", func() {
		Expect(task_tracker.DirectoryKey("notion", "  Jane.Doe@X.com ")).To(Equal("clausewise:directory:notion:jane.doe@x.com"))
	})
})
