package orgs

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearvat/clearvat/internal/tenancy"
	_ "github.com/clearvat/clearvat/testing"
)

type countingCounter struct {
	calls   atomic.Int64
	release chan struct{}
}

func (c *countingCounter) Count(ctx context.Context, op tenancy.Op) (int64, error) {
	c.calls.Add(1)
	if c.release != nil {
		<-c.release
	}
	return 3, nil
}

func orgContext(orgID string) context.Context {
	return tenancy.WithPrincipal(context.Background(), &tenancy.Principal{
		UserID: "u-1",
		OrgID:  orgID,
		Role:   tenancy.RoleTeamLead,
	})
}

func TestMetricsCountsScopedEntities(t *testing.T) {
	counter := &countingCounter{}
	service := NewService(nil, counter)

	m, err := service.Metrics(orgContext("org-a"))
	require.NoError(t, err)

	assert.EqualValues(t, 3, m.Users)
	assert.EqualValues(t, 3, m.Clients)
	assert.EqualValues(t, 3, m.Submissions)
	assert.EqualValues(t, 3, m.Uploads)
	assert.EqualValues(t, 4, counter.calls.Load())
}

func TestMetricsRequiresOrgContext(t *testing.T) {
	service := NewService(nil, &countingCounter{})

	_, err := service.Metrics(context.Background())
	assert.ErrorIs(t, err, tenancy.ErrNoOrgContext)
}

func TestMetricsConcurrentCallersShareComputation(t *testing.T) {
	counter := &countingCounter{release: make(chan struct{})}
	service := NewService(nil, counter)
	ctx := orgContext("org-a")

	const callers = 8
	var wg sync.WaitGroup
	results := make([]Metrics, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = service.Metrics(ctx)
		}(i)
	}

	// Let every caller join the in-flight computation before the
	// counter is released.
	for counter.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	close(counter.release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.EqualValues(t, 3, results[i].Users)
	}
	// All callers piggyback on at most a few computations; far fewer
	// than callers*4 counter hits.
	assert.Less(t, counter.calls.Load(), int64(callers*4))
}
