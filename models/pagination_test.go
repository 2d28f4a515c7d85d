package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(1, 10, 25)
	assert.Equal(t, 1, p.Current)
	assert.Equal(t, 3, p.Pages)
	assert.True(t, p.HasNext)
	assert.False(t, p.HasPrev)

	p = NewPagination(3, 10, 25)
	assert.False(t, p.HasNext)
	assert.True(t, p.HasPrev)

	p = NewPagination(2, 10, 20)
	assert.Equal(t, 2, p.Pages)
	assert.False(t, p.HasNext)
}

func TestNewPaginationEmptyResult(t *testing.T) {
	p := NewPagination(1, 10, 0)
	assert.Equal(t, 0, p.Pages)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrev)
}

func TestNewPaginationClampsInput(t *testing.T) {
	p := NewPagination(0, 0, 5)
	assert.Equal(t, 1, p.Current)
	assert.Equal(t, 1, p.Limit)
	assert.Equal(t, 5, p.Pages)
}
