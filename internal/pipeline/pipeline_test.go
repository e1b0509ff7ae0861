package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/c360/xmltrace/internal/actions"
	"github.com/c360/xmltrace/internal/metrics"
	"github.com/c360/xmltrace/internal/splitter"
	"github.com/c360/xmltrace/internal/state"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunFilterModeEndToEnd(t *testing.T) {
	input := strings.Join([]string{
		`<dm_log_packet><pair key="timestamp">1970-01-01 08:00:00</pair><pair key="type_id">LTE_RRC_OTA_Packet</pair></dm_log_packet>`,
		`<dm_log_packet><pair key="timestamp">1970-01-01 08:00:01</pair><pair key="type_id">LTE_MAC_Rach_Attempt</pair></dm_log_packet>`,
		`<dm_log_packet><pair key="timestamp">1970-01-01 08:00:02</pair><pair key="type_id">LTE_RRC_Serv_Cell_Info</pair></dm_log_packet>`,
	}, "")

	var out bytes.Buffer
	st := state.New(&out)
	reg := actions.BuildFilterRegistry(regexp.MustCompile("^LTE_RRC"))

	cfg := Config{
		Sources:  []splitter.Source{{Name: "test.xml", R: strings.NewReader(input)}},
		Workers:  2,
		Registry: reg,
		State:    st,
		Logger:   testLogger(),
		FastPath: true,
	}

	err := Run(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, st.Flush())

	got := out.String()
	assert.Contains(t, got, "LTE_RRC_OTA_Packet")
	assert.Contains(t, got, "LTE_RRC_Serv_Cell_Info")
	assert.NotContains(t, got, "LTE_MAC_Rach_Attempt")
}

func TestRunFailsFatallyOnMalformedFragment(t *testing.T) {
	input := `<unclosed_packet><pair key="timestamp">1970-01-01 08:00:00</pair>`

	var out bytes.Buffer
	st := state.New(&out)
	reg := actions.BuildFilterRegistry(regexp.MustCompile(".*"))

	cfg := Config{
		Sources:  []splitter.Source{{Name: "bad.xml", R: strings.NewReader(input)}},
		Workers:  1,
		Registry: reg,
		State:    st,
		Logger:   testLogger(),
		FastPath: true,
	}

	err := Run(context.Background(), cfg)
	require.Error(t, err)
}

func TestRunUpdatesPromMetrics(t *testing.T) {
	input := strings.Join([]string{
		`<dm_log_packet><pair key="timestamp">1970-01-01 08:00:00</pair><pair key="type_id">LTE_RRC_OTA_Packet</pair></dm_log_packet>`,
		`<dm_log_packet><pair key="timestamp">1970-01-01 08:00:01</pair><pair key="type_id">LTE_MAC_Rach_Attempt</pair></dm_log_packet>`,
	}, "")

	var out bytes.Buffer
	st := state.New(&out)
	reg := actions.BuildFilterRegistry(regexp.MustCompile(".*"))
	m, _ := metrics.New()

	cfg := Config{
		Sources:     []splitter.Source{{Name: "test.xml", R: strings.NewReader(input)}},
		Workers:     2,
		Registry:    reg,
		State:       st,
		Logger:      testLogger(),
		FastPath:    true,
		PromMetrics: m,
	}

	err := Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.FragmentsSplit))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LifecycleStage.WithLabelValues(InOrderExecutorFinished.String())))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.LifecycleStage.WithLabelValues(Initializing.String())))
}

// TestRunDeterministicOrderAcrossWorkerCounts is the literal S3 scenario
// from the spec's TESTABLE PROPERTIES: 10,000 fragments with strictly
// increasing microsecond timestamps, run under `--filter '.*'` once per
// worker count 1..16, must reproduce the input in exact order every time —
// output is a deterministic function of the input bytes, independent of N.
func TestRunDeterministicOrderAcrossWorkerCounts(t *testing.T) {
	const n = 10000
	var b strings.Builder
	var want strings.Builder
	for i := 0; i < n; i++ {
		frag := fmt.Sprintf(
			`<dm_log_packet><pair key="timestamp">1970-01-01 08:00:%02d.%06d</pair><pair key="type_id">T%05d</pair></dm_log_packet>`,
			i/1000000%60, i%1000000, i,
		)
		b.WriteString(frag)
		want.WriteString(frag)
		want.WriteByte('\n')
	}
	input := b.String()
	wantOutput := want.String()

	reg := actions.BuildFilterRegistry(regexp.MustCompile(".*"))

	for workers := 1; workers <= 16; workers++ {
		workers := workers
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			var out bytes.Buffer
			st := state.New(&out)

			cfg := Config{
				Sources:  []splitter.Source{{Name: "s3.xml", R: strings.NewReader(input)}},
				Workers:  workers,
				Registry: reg,
				State:    st,
				Logger:   testLogger(),
				FastPath: true,
			}

			err := Run(context.Background(), cfg)
			require.NoError(t, err)
			require.NoError(t, st.Flush())

			assert.Equal(t, wantOutput, out.String())
		})
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	// A single well-formed fragment: with the context already cancelled, the
	// run should stop early rather than blocking.
	input := `<dm_log_packet><pair key="timestamp">1970-01-01 08:00:00</pair><pair key="type_id">A</pair></dm_log_packet>`

	var out bytes.Buffer
	st := state.New(&out)
	reg := actions.BuildFilterRegistry(regexp.MustCompile(".*"))

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Millisecond)
	defer cancel()
	time.Sleep(2 * time.Millisecond)

	cfg := Config{
		Sources:  []splitter.Source{{Name: "test.xml", R: strings.NewReader(input)}},
		Workers:  1,
		Registry: reg,
		State:    st,
		Logger:   testLogger(),
		FastPath: true,
	}

	_ = Run(ctx, cfg)
	// No assertion on the specific error: cancellation may race a clean
	// finish on such a short input. The test's purpose is that Run returns
	// promptly instead of hanging.
}
