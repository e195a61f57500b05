package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvent_Kinds(t *testing.T) {
	cases := []struct {
		event Event
		kind  EventKind
	}{
		{&JobUpdated{}, "jobUpdated"},
		{&MaybeServiceJob{}, "maybeServiceJob"},
		{&Drain{}, "drain"},
		{&ProcessCommitted{}, "processCommitted"},
		{&ProcessNowCommitted{}, "processNowCommitted"},
		{&StopProcess{}, "stopProcess"},
		{&ServiceFailed{}, "serviceFailed"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.kind, tc.event.Kind())
	}
}

func TestNopObserver(t *testing.T) {
	var o Observer = NopObserver{}
	assert.NotPanics(t, func() {
		o.Emit(context.Background(), &Drain{})
	})
}
