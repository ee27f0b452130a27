package out_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	out "pomoguard/internal/modules/guard/adapter/out"
	"pomoguard/internal/modules/guard/domain"
	settingsdto "pomoguard/internal/modules/settings/dto"
	settingsin "pomoguard/internal/modules/settings/port/in"
	timerdto "pomoguard/internal/modules/timer/dto"
)

type fakeQuery struct {
	state timerdto.StateOutput
	err   error
}

func (f fakeQuery) GetState(context.Context) (timerdto.StateOutput, error) { return f.state, f.err }

type fakeSettings struct {
	settingsin.Usecase
	out settingsdto.SettingsOutput
}

func (f fakeSettings) Get(context.Context) (settingsdto.SettingsOutput, error) { return f.out, nil }

func TestTimerStateAdapterMapsFlags(t *testing.T) {
	t.Parallel()
	a := out.NewTimerStateAdapter(fakeQuery{state: timerdto.StateOutput{TimeLeft: 300, Running: true, OnBreak: true}})
	view, err := a.Session(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SessionView{TimeLeft: 300, Running: true, OnBreak: true}, view)

	_, err = out.NewTimerStateAdapter(fakeQuery{err: errors.New("down")}).Session(context.Background())
	assert.Error(t, err)
}

func TestSettingsSitesAdapterReturnsBlockedSites(t *testing.T) {
	t.Parallel()
	a := out.NewSettingsSitesAdapter(fakeSettings{out: settingsdto.SettingsOutput{BlockedSites: []string{"reddit.com"}}})
	sites, err := a.BlockedSites(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"reddit.com"}, sites)
}

func TestPrometheusMetricsLabelsDecisions(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := out.NewPrometheusMetrics(reg)
	m.Decided(domain.Decision{Blocked: true})
	m.Decided(domain.Decision{})
	m.Decided(domain.Decision{BlockPage: true})
	m.Decided(domain.Decision{Blocked: true})
	m.Redirected()
	m.Contexts(3)

	count, err := testutil.GatherAndCount(reg, "pomoguard_guard_decisions_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[mf.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[mf.GetName()] += metric.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, 4.0, values["pomoguard_guard_decisions_total"])
	assert.Equal(t, 1.0, values["pomoguard_guard_redirects_total"])
	assert.Equal(t, 3.0, values["pomoguard_guard_contexts"])
}
