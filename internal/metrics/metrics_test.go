package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestActiveActionCompletions_IncrementsPerSkillLabel(t *testing.T) {
	before := testutil.ToFloat64(ActiveActionCompletions.WithLabelValues("Woodcutting"))

	ActiveActionCompletions.WithLabelValues("Woodcutting").Inc()

	after := testutil.ToFloat64(ActiveActionCompletions.WithLabelValues("Woodcutting"))
	require.Equal(t, before+1, after)
}

func TestTicksAdvanced_IsACounter(t *testing.T) {
	before := testutil.ToFloat64(TicksAdvanced)
	TicksAdvanced.Add(5)
	after := testutil.ToFloat64(TicksAdvanced)
	require.Equal(t, before+5, after)
}

func TestPlanDuration_Observes(t *testing.T) {
	PlanDuration.Observe(0.05)
	require.Equal(t, 1, testutil.CollectAndCount(PlanDuration))
}
