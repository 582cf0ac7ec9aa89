package maintain_test

import (
	"strings"
	"testing"
	"time"

	"mnemo/pkg/maintain"
)

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	_, err := maintain.NewScheduler("every 6h", func() {})
	if err == nil {
		t.Fatal("expected error for malformed schedule")
	}
	if !strings.Contains(err.Error(), `parse schedule "every 6h"`) {
		t.Errorf("error = %v, want it to name the bad spec", err)
	}
}

func TestNewSchedulerAcceptsDescriptorsAndCronSyntax(t *testing.T) {
	for _, spec := range []string{"@every 6h", "@daily", "0 3 * * *"} {
		s, err := maintain.NewScheduler(spec, func() {})
		if err != nil {
			t.Errorf("NewScheduler(%q): %v", spec, err)
			continue
		}
		s.Start()
		s.Stop()
	}
}

func TestSchedulerRunsJob(t *testing.T) {
	fired := make(chan struct{}, 1)
	s, err := maintain.NewScheduler("@every 10ms", func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	s.Start()
	defer s.Stop()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled job never ran")
	}
}
