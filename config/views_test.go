package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetViewPaths(t *testing.T) {
	assert.Equal(t, []string{"/", "/map", "/homes", "/info"}, GetViewPaths())
}

func TestGetViewByPath(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		expectedName string
		expectNil    bool
	}{
		{name: "Landing", path: "/", expectedName: "info"},
		{name: "Map", path: "/map", expectedName: "map"},
		{name: "Homes", path: "/homes", expectedName: "homes"},
		{name: "Unknown", path: "/admin", expectNil: true},
		{name: "Case sensitive", path: "/MAP", expectNil: true},
		{name: "Empty", path: "", expectNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := GetViewByPath(tt.path)
			if tt.expectNil {
				assert.Nil(t, view)
				return
			}
			if assert.NotNil(t, view) {
				assert.Equal(t, tt.expectedName, view.Name)
				assert.Equal(t, tt.path, view.Path)
			}
		})
	}
}
