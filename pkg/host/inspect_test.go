package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/waves/pkg/dsp/wavetable"
)

func TestRenderCycleIsTheTable(t *testing.T) {
	catalog := wavetable.Default()
	table := catalog.Table(5)

	cycle := RenderCycle(catalog, 5, 0, 0, wavetable.TableSize)
	require.Len(t, cycle, wavetable.TableSize)
	for i := range cycle {
		assert.InDelta(t, table[i], cycle[i], 1e-5, "sample %d", i)
	}
}

func TestInspectSine(t *testing.T) {
	s, err := Inspect(wavetable.Default(), 0, 0, 0, 128, 8)
	require.NoError(t, err)

	assert.Equal(t, "A1", s.Name)
	require.Len(t, s.Harmonics, 9)
	assert.InDelta(t, 0, s.Harmonics[0], 1e-4, "DC")
	assert.InDelta(t, 1, s.Harmonics[1], 1e-3)
	for k := 2; k <= 8; k++ {
		assert.Less(t, s.Harmonics[k], 1e-3, "harmonic %d", k)
	}
	assert.InDelta(t, 1, s.Centroid, 1e-2)
}

func TestInspectShapeBrightens(t *testing.T) {
	catalog := wavetable.Default()
	plain, err := Inspect(catalog, 0, 0, 0, 256, 32)
	require.NoError(t, err)
	shaped, err := Inspect(catalog, 0, 1, 0, 256, 32)
	require.NoError(t, err)

	assert.Greater(t, shaped.Centroid, plain.Centroid)
	assert.Greater(t, shaped.Harmonics[8], plain.Harmonics[8])
}

func TestInspectErrors(t *testing.T) {
	catalog := wavetable.Default()

	_, err := Inspect(catalog, 0, 0, 0, 100, 8)
	assert.Error(t, err)

	_, err = Inspect(catalog, catalog.Total(), 0, 0, 128, 8)
	assert.Error(t, err)

	_, err = Inspect(catalog, -1, 0, 0, 128, 8)
	assert.Error(t, err)
}

func TestInspectAll(t *testing.T) {
	catalog := wavetable.Default()
	all, err := InspectAll(context.Background(), catalog, 0.5, 0.5, 128, 16)
	require.NoError(t, err)
	require.Len(t, all, catalog.Total())

	for i, s := range all {
		assert.Equal(t, i, s.Wave)
		assert.Equal(t, catalog.Name(i), s.Name)
		assert.Len(t, s.Harmonics, 17)
	}
}

func TestInspectAllPropagatesErrors(t *testing.T) {
	_, err := InspectAll(context.Background(), wavetable.Default(), 0, 0, 100, 8)
	assert.Error(t, err)
}

func TestInspectAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := InspectAll(ctx, wavetable.Default(), 0, 0, 128, 8)
	assert.ErrorIs(t, err, context.Canceled)
}
