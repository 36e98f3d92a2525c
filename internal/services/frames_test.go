package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyFrameText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected FrameClass
	}{
		{"vehicle data header", "Dados do Veiculo\nPlaca\nABC1234", FrameData},
		{"model label only", "algo\nMarca/Modelo\n108661 - FIAT UNO", FrameData},
		{"no record message", "Nenhum veículo encontrado para a placa informada", FrameNotFound},
		{"plate mismatch message", "A placa informada não confere", FrameNotFound},
		{"still loading", "Aguarde, processando...", FrameUnknown},
		{"empty frame", "", FrameUnknown},
		{"data wins over not found", "Dados do Veic\nNenhum veículo encontrado", FrameData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyFrameText(tt.text))
		})
	}
}

func TestSelectDataFrame(t *testing.T) {
	snapshots := []FrameSnapshot{
		{Index: 0, Name: "topo", Text: "menu principal"},
		{Index: 1, Name: "principal", Text: "Dados do Veic\nPlaca\nABC1234"},
		{Index: 2, Name: "rodape", Text: ""},
	}

	t.Run("preferred frame holds the data", func(t *testing.T) {
		frame, class := SelectDataFrame(snapshots, 1)
		require.NotNil(t, frame)
		assert.Equal(t, FrameData, class)
		assert.Equal(t, "principal", frame.Name)
	})

	t.Run("preferred frame unresolved falls back to scan", func(t *testing.T) {
		frame, class := SelectDataFrame(snapshots, 0)
		require.NotNil(t, frame)
		assert.Equal(t, FrameData, class)
		assert.Equal(t, 1, frame.Index)
	})

	t.Run("preferred index out of range", func(t *testing.T) {
		frame, class := SelectDataFrame(snapshots, 99)
		require.NotNil(t, frame)
		assert.Equal(t, FrameData, class)
	})

	t.Run("not found in another frame", func(t *testing.T) {
		frames := []FrameSnapshot{
			{Index: 0, Text: "menu"},
			{Index: 1, Text: "Nenhum veículo encontrado"},
		}
		frame, class := SelectDataFrame(frames, 0)
		require.NotNil(t, frame)
		assert.Equal(t, FrameNotFound, class)
	})

	t.Run("nothing resolved", func(t *testing.T) {
		frames := []FrameSnapshot{
			{Index: 0, Text: "carregando"},
			{Index: 1, Text: ""},
		}
		frame, class := SelectDataFrame(frames, 1)
		assert.Nil(t, frame)
		assert.Equal(t, FrameUnknown, class)
	})

	t.Run("no frames", func(t *testing.T) {
		frame, class := SelectDataFrame(nil, -1)
		assert.Nil(t, frame)
		assert.Equal(t, FrameUnknown, class)
	})
}
