package blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() Schema {
	return Schema{
		{Name: "data", DType: Float32, Rank: 4},
		{Name: "labels", DType: Int32, Rank: 1},
	}
}

func TestSchemaNamesOrdered(t *testing.T) {
	assert.Equal(t, []string{"data", "labels"}, testSchema().Names())
}

func TestConforms(t *testing.T) {
	valid := Minibatch{
		"data":   {DType: Float32, Shape: []int{2, 3, 4, 4}, Float32s: make([]float32, 96)},
		"labels": {DType: Int32, Shape: []int{2}, Int32s: make([]int32, 2)},
	}

	tests := []struct {
		name    string
		mutate  func(Minibatch)
		wantErr bool
	}{
		{name: "valid minibatch", mutate: func(Minibatch) {}},
		{
			name:    "missing blob",
			mutate:  func(m Minibatch) { delete(m, "labels") },
			wantErr: true,
		},
		{
			name: "wrong dtype",
			mutate: func(m Minibatch) {
				m["labels"] = Blob{DType: Float32, Shape: []int{2}}
			},
			wantErr: true,
		},
		{
			name: "wrong rank",
			mutate: func(m Minibatch) {
				m["data"] = Blob{DType: Float32, Shape: []int{2, 3}}
			},
			wantErr: true,
		},
		{
			name: "extra blob",
			mutate: func(m Minibatch) {
				m["rois"] = Blob{DType: Float32, Shape: []int{1, 5}}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mb := make(Minibatch, len(valid))
			for k, v := range valid {
				mb[k] = v
			}
			tt.mutate(mb)
			err := mb.Conforms(testSchema())
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestBlobLen(t *testing.T) {
	assert.Equal(t, 24, Blob{Shape: []int{2, 3, 4}}.Len())
	assert.Equal(t, 0, Blob{}.Len())
}

func TestDTypeString(t *testing.T) {
	assert.Equal(t, "float32", Float32.String())
	assert.Equal(t, "int32", Int32.String())
}
