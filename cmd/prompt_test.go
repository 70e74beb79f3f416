package cmd

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeInto(t *testing.T, m textPromptModel, text string) textPromptModel {
	t.Helper()
	for _, r := range text {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(textPromptModel)
	}
	return m
}

func TestTextPromptModel(t *testing.T) {
	t.Run("enter accepts the typed value", func(t *testing.T) {
		m := typeInto(t, newTextPromptModel("Path to the cache directory: "), "/data/cache")
		assert.Contains(t, m.View(), "Path to the cache directory: ")

		next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = next.(textPromptModel)
		assert.True(t, m.done)
		assert.False(t, m.cancelled)
		assert.Equal(t, "/data/cache", m.input.Value())
		assert.Empty(t, m.View())
		require.NotNil(t, cmd)
		assert.Equal(t, tea.Quit(), cmd())
	})

	for _, key := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEsc} {
		t.Run(key.String()+" cancels", func(t *testing.T) {
			m := typeInto(t, newTextPromptModel("Path: "), "/x")
			next, cmd := m.Update(tea.KeyMsg{Type: key})
			m = next.(textPromptModel)
			assert.True(t, m.cancelled)
			assert.False(t, m.done)
			require.NotNil(t, cmd)
			assert.Equal(t, tea.Quit(), cmd())
		})
	}
}
