package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge3TextDisjointEdits(t *testing.T) {
	base := []byte("one\ntwo\nthree\nfour\n")
	local := []byte("ONE\ntwo\nthree\nfour\n")
	remote := []byte("one\ntwo\nthree\nFOUR\n")

	merged, conflicts := merge3Text(base, local, remote, "local", "remote")
	assert.Zero(t, conflicts)
	assert.Equal(t, "ONE\ntwo\nthree\nFOUR\n", string(merged))
}

func TestMerge3TextIdenticalEdits(t *testing.T) {
	base := []byte("one\ntwo\nthree\n")
	side := []byte("one\nTWO\nthree\n")

	merged, conflicts := merge3Text(base, side, side, "local", "remote")
	assert.Zero(t, conflicts)
	assert.Equal(t, string(side), string(merged))
}

func TestMerge3TextConflictBlock(t *testing.T) {
	base := []byte("alpha\nbeta\ngamma\n")
	local := []byte("alpha\nBETA-local\ngamma\n")
	remote := []byte("alpha\nBETA-remote\ngamma\n")

	merged, conflicts := merge3Text(base, local, remote, "local here", "remote there")
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, "alpha\n"+
		"<<<<<<< local here\n"+
		"BETA-local\n"+
		"||||||| base\n"+
		"beta\n"+
		"=======\n"+
		"BETA-remote\n"+
		">>>>>>> remote there\n"+
		"gamma\n", string(merged))
}

func TestMerge3TextInsertions(t *testing.T) {
	base := []byte("b1\nb2\n")
	local := []byte("top\nb1\nb2\n")
	remote := []byte("b1\nb2\nbottom\n")

	merged, conflicts := merge3Text(base, local, remote, "local", "remote")
	assert.Zero(t, conflicts)
	assert.Equal(t, "top\nb1\nb2\nbottom\n", string(merged))
}

func TestMerge3TextInsertsAtSamePoint(t *testing.T) {
	base := []byte("a\nz\n")
	local := []byte("a\nMID-L\nz\n")
	remote := []byte("a\nMID-R\nz\n")

	// there is no defensible ordering for two insertions at one spot
	merged, conflicts := merge3Text(base, local, remote, "local", "remote")
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, "a\n"+
		"<<<<<<< local\n"+
		"MID-L\n"+
		"||||||| base\n"+
		"=======\n"+
		"MID-R\n"+
		">>>>>>> remote\n"+
		"z\n", string(merged))
}

func TestMerge3TextDeleteAgainstUntouched(t *testing.T) {
	base := []byte("a\nb\nc\n")
	local := []byte("a\nc\n")

	merged, conflicts := merge3Text(base, local, base, "local", "remote")
	assert.Zero(t, conflicts)
	assert.Equal(t, "a\nc\n", string(merged))
}

func TestMerge3TextNoTrailingNewline(t *testing.T) {
	base := []byte("k = 1")
	local := []byte("k = 2")
	remote := []byte("k = 3")

	// the closing marker still lands on its own line
	merged, conflicts := merge3Text(base, local, remote, "local", "remote")
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, "<<<<<<< local\n"+
		"k = 2\n"+
		"||||||| base\n"+
		"k = 1\n"+
		"=======\n"+
		"k = 3\n"+
		">>>>>>> remote\n", string(merged))
}

func TestMerge3TextEmptyBase(t *testing.T) {
	local := []byte("same\ncontent\n")
	remote := []byte("same\ncontent\n")

	// both sides created the same file from nothing
	merged, conflicts := merge3Text(nil, local, remote, "local", "remote")
	assert.Zero(t, conflicts)
	assert.Equal(t, "same\ncontent\n", string(merged))
}

func TestMerge3TextRemoteOnlyChange(t *testing.T) {
	base := []byte("one\ntwo\n")
	remote := []byte("one\nTWO\n")

	merged, conflicts := merge3Text(base, base, remote, "local", "remote")
	assert.Zero(t, conflicts)
	assert.Equal(t, "one\nTWO\n", string(merged))
}
