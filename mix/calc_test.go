package mix

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

func TestComputeEmptyComponents(t *testing.T) {
	specs := []ReactionSpec{
		{VolumePerReaction: 20, ReactionCount: 50},
		{VolumePerReaction: 0.5, ReactionCount: 3},
		{VolumePerReaction: 25, ReactionCount: 96.5},
	}

	for _, spec := range specs {
		r, err := Compute(spec, nil, "")
		require.NoError(t, err)
		require.Len(t, r.Rows, 1)
		assert.Equal(t, spec.VolumePerReaction*spec.ReactionCount, r.Total)
		assert.Equal(t, Row{Label: DefaultBufferName, Volume: r.Total}, r.Buffer())
		assert.Empty(t, r.Components())
	}
}

func TestComputeScenarios(t *testing.T) {
	tests := []struct {
		name       string
		spec       ReactionSpec
		components []Component
		err        error
		rows       []Row
	}{
		{
			name:       "primer by final concentration",
			spec:       ReactionSpec{20, 50},
			components: []Component{{Name: "Primer", Stock: 10, Final: 0.5, Dilution: nan}},
			rows:       []Row{{"Primer", 50}, {"Buffer", 950}},
		},
		{
			name:       "enzyme without stock",
			spec:       ReactionSpec{20, 50},
			components: []Component{{Name: "Enzyme", Stock: nan, Final: 1, Dilution: nan}},
			err:        ErrInvalidComponent,
		},
		{
			name:       "components exceed total",
			spec:       ReactionSpec{10, 10},
			components: []Component{{Stock: 1, Final: 2, Dilution: nan}},
			err:        ErrVolumeExceeded,
		},
		{
			name:       "reaction count blank",
			spec:       ReactionSpec{10, nan},
			components: []Component{{Stock: nan, Final: nan, Dilution: nan}},
			err:        ErrMissingReactionParameters,
		},
		{
			name:       "volume infinite",
			spec:       ReactionSpec{math.Inf(1), 2},
			components: nil,
			err:        ErrMissingReactionParameters,
		},
		{
			name: "dilution factor",
			spec: ReactionSpec{25, 4},
			components: []Component{
				{Name: "Taq buffer", Stock: 10, Final: nan, Dilution: 10},
				{Name: "dNTP", Stock: 10, Final: 0.2, Dilution: nan},
			},
			rows: []Row{{"Taq buffer", 10}, {"dNTP", 2}, {"Buffer", 88}},
		},
		{
			name:       "final wins over dilution",
			spec:       ReactionSpec{10, 10},
			components: []Component{{Name: "x", Stock: 4, Final: 1, Dilution: 2}},
			rows:       []Row{{"x", 25}, {"Buffer", 75}},
		},
		{
			name:       "neither final nor dilution",
			spec:       ReactionSpec{10, 10},
			components: []Component{{Name: "x", Stock: 4, Final: nan, Dilution: nan}},
			err:        ErrInvalidComponent,
		},
		{
			name:       "zero stock",
			spec:       ReactionSpec{10, 10},
			components: []Component{{Name: "x", Stock: 0, Final: 1, Dilution: nan}},
			err:        ErrInvalidComponent,
		},
		{
			name:       "negative dilution",
			spec:       ReactionSpec{10, 10},
			components: []Component{{Name: "x", Stock: 1, Final: nan, Dilution: -4}},
			err:        ErrInvalidComponent,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r, err := Compute(test.spec, test.components, "")
			if test.err != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, test.err)
				assert.Empty(t, r.Rows)
				return
			}
			require.NoError(t, err)
			require.Len(t, r.Rows, len(test.rows))
			for i, row := range test.rows {
				assert.Equal(t, row.Label, r.Rows[i].Label)
				assert.InDelta(t, row.Volume, r.Rows[i].Volume, 1e-9)
			}
		})
	}
}

func TestComputeFirstInvalidComponent(t *testing.T) {
	components := []Component{
		{Name: "ok", Stock: 10, Final: 1, Dilution: nan},
		{Name: " ", Stock: nan, Final: 1, Dilution: nan},
		{Name: "also bad", Stock: 10, Final: nan, Dilution: nan},
	}
	_, err := Compute(ReactionSpec{10, 10}, components, "")

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 1, verr.Index)
	assert.Equal(t, DefaultComponentName, verr.Name)
	assert.Equal(t, "component 2 (Component): "+ErrInvalidComponent.Error(), verr.Error())
}

func TestComputeExactFill(t *testing.T) {
	components := []Component{
		{Name: "a", Stock: 2, Final: 1, Dilution: nan},
		{Name: "b", Stock: 10, Final: nan, Dilution: 2},
	}
	r, err := Compute(ReactionSpec{10, 10}, components, "Water")
	require.NoError(t, err)
	assert.Equal(t, Row{Label: "Water", Volume: 0}, r.Buffer())
}

func TestComputeSumInvariant(t *testing.T) {
	components := []Component{
		{Name: "MgCl2", Stock: 25, Final: 1.5, Dilution: nan},
		{Name: "dNTP", Stock: 10, Final: 0.2, Dilution: nan},
		{Name: "Primer F", Stock: 10, Final: 0.3, Dilution: nan},
		{Name: "Primer R", Stock: 10, Final: 0.3, Dilution: nan},
		{Name: "Buffer 5x", Stock: 5, Final: nan, Dilution: 5},
		{Name: "Polymerase", Stock: 5, Final: 0.025, Dilution: nan},
	}
	for _, spec := range []ReactionSpec{{25, 7}, {50, 13.3}, {12.5, 96}, {1e-3, 3}} {
		r, err := Compute(spec, components, "")
		require.NoError(t, err)
		assert.InDelta(t, r.Total, r.Sum(), 1e-9*r.Total)
		assert.GreaterOrEqual(t, r.Buffer().Volume, 0.0)
	}
}

func TestComputeIdempotent(t *testing.T) {
	components := []Component{
		{Name: "a", Stock: 3, Final: 0.7, Dilution: nan},
		{Name: "b", Stock: 1, Final: nan, Dilution: 7},
	}
	orig := append([]Component(nil), components...)

	r1, err1 := Compute(ReactionSpec{17.3, 11}, components, "TE")
	r2, err2 := Compute(ReactionSpec{17.3, 11}, components, "TE")
	require.NoError(t, err1)
	require.NoError(t, err2)
	require.Equal(t, len(r1.Rows), len(r2.Rows))
	for i := range r1.Rows {
		assert.Equal(t, math.Float64bits(r1.Rows[i].Volume), math.Float64bits(r2.Rows[i].Volume))
	}
	assert.Equal(t, orig[0].Name, components[0].Name)
	assert.Equal(t, orig[1].Stock, components[1].Stock)
}

func TestComputeBufferName(t *testing.T) {
	r, err := Compute(ReactionSpec{1, 1}, nil, "  Nuclease-free water ")
	require.NoError(t, err)
	assert.Equal(t, "Nuclease-free water", r.Buffer().Label)

	r, err = Compute(ReactionSpec{1, 1}, nil, "   ")
	require.NoError(t, err)
	assert.Equal(t, DefaultBufferName, r.Buffer().Label)
}

func TestResultString(t *testing.T) {
	r, err := Compute(ReactionSpec{20, 50}, []Component{{Name: "Primer", Stock: 10, Final: 0.5, Dilution: nan}}, "")
	require.NoError(t, err)
	assert.Equal(t, "50.00µl Primer + 950.00µl Buffer = 1000.00µl", r.String())
}
