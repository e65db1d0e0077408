package core

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// markers written into conflict sidecars, one side labeled per layer
const (
	markerLocal  = "<<<<<<< "
	markerBase   = "||||||| base"
	markerSplit  = "======="
	markerRemote = ">>>>>>> "
)

// editSpan replaces base lines [baseFrom, baseTo) with lines
type editSpan struct {
	baseFrom int
	baseTo   int
	lines    []string
}

// merge3Text merges two edits of the same text against their common
// base, line by line. Changes touching disjoint base regions are both
// applied. Overlapping, non-identical changes become a conflict block
// carrying both sides and the base, so the count of conflicts tells the
// caller whether the output is a clean merge or a sidecar artifact.
func merge3Text(base, local, remote []byte, labelLocal, labelRemote string) ([]byte, int) {
	baseLines := splitLines(string(base))
	localSpans := editScript(string(base), string(local))
	remoteSpans := editScript(string(base), string(remote))

	var out strings.Builder
	conflicts := 0
	baseIdx := 0
	li, ri := 0, 0

	for li < len(localSpans) || ri < len(remoteSpans) {
		haveL, haveR := li < len(localSpans), ri < len(remoteSpans)

		if haveL && haveR && spansCollide(localSpans[li], remoteSpans[ri]) {
			from, to, groupL, groupR := groupCollisions(localSpans, remoteSpans, &li, &ri)
			localVer := applySpans(baseLines, groupL, from, to)
			remoteVer := applySpans(baseLines, groupR, from, to)

			writeLines(&out, baseLines[baseIdx:from])
			if sameLines(localVer, remoteVer) {
				writeLines(&out, localVer)
			} else {
				conflicts++
				writeConflict(&out, labelLocal, labelRemote, localVer, baseLines[from:to], remoteVer)
			}
			baseIdx = to
			continue
		}

		var next editSpan
		if haveL && (!haveR || localSpans[li].baseFrom <= remoteSpans[ri].baseFrom) {
			next = localSpans[li]
			li++
		} else {
			next = remoteSpans[ri]
			ri++
		}
		writeLines(&out, baseLines[baseIdx:next.baseFrom])
		writeLines(&out, next.lines)
		baseIdx = next.baseTo
	}
	writeLines(&out, baseLines[baseIdx:])

	return []byte(out.String()), conflicts
}

// editScript diffs side against base and folds the result into
// replacement spans over base line indices. Adjacent deletions and
// insertions coalesce into one span.
func editScript(base, side string) []editSpan {
	dmp := diffmatchpatch.New()
	encBase, encSide, lineArray := dmp.DiffLinesToChars(base, side)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(encBase, encSide, false), lineArray)

	var spans []editSpan
	cur := -1
	baseIdx := 0
	for _, d := range diffs {
		lines := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			cur = -1
			baseIdx += len(lines)
		case diffmatchpatch.DiffDelete:
			if cur >= 0 && spans[cur].baseTo == baseIdx {
				spans[cur].baseTo += len(lines)
			} else {
				spans = append(spans, editSpan{baseFrom: baseIdx, baseTo: baseIdx + len(lines)})
				cur = len(spans) - 1
			}
			baseIdx += len(lines)
		case diffmatchpatch.DiffInsert:
			if cur >= 0 && spans[cur].baseTo == baseIdx {
				spans[cur].lines = append(spans[cur].lines, lines...)
			} else {
				spans = append(spans, editSpan{baseFrom: baseIdx, baseTo: baseIdx, lines: lines})
				cur = len(spans) - 1
			}
		}
	}
	return spans
}

// spansCollide reports whether two spans edit intersecting base
// regions. Insertions at the same point collide as well: there is no
// defensible ordering for them.
func spansCollide(a, b editSpan) bool {
	if a.baseFrom == b.baseFrom {
		return true
	}
	return a.baseFrom < b.baseTo && b.baseFrom < a.baseTo
}

// groupCollisions consumes every span from both sides transitively
// touching one contested base region and returns that region with the
// spans grouped per side.
func groupCollisions(localSpans, remoteSpans []editSpan, li, ri *int) (from, to int, groupL, groupR []editSpan) {
	first := localSpans[*li]
	second := remoteSpans[*ri]
	from = first.baseFrom
	if second.baseFrom < from {
		from = second.baseFrom
	}
	to = first.baseTo
	if second.baseTo > to {
		to = second.baseTo
	}
	groupL = append(groupL, first)
	groupR = append(groupR, second)
	*li++
	*ri++

	for {
		grew := false
		for *li < len(localSpans) && localSpans[*li].baseFrom < to {
			if localSpans[*li].baseTo > to {
				to = localSpans[*li].baseTo
			}
			groupL = append(groupL, localSpans[*li])
			*li++
			grew = true
		}
		for *ri < len(remoteSpans) && remoteSpans[*ri].baseFrom < to {
			if remoteSpans[*ri].baseTo > to {
				to = remoteSpans[*ri].baseTo
			}
			groupR = append(groupR, remoteSpans[*ri])
			*ri++
			grew = true
		}
		if !grew {
			return from, to, groupL, groupR
		}
	}
}

// applySpans replays one side's spans over the contested base region
func applySpans(baseLines []string, group []editSpan, from, to int) []string {
	var out []string
	idx := from
	for _, s := range group {
		out = append(out, baseLines[idx:s.baseFrom]...)
		out = append(out, s.lines...)
		idx = s.baseTo
	}
	return append(out, baseLines[idx:to]...)
}

func writeConflict(out *strings.Builder, labelLocal, labelRemote string, localVer, baseVer, remoteVer []string) {
	out.WriteString(markerLocal + labelLocal + "\n")
	writeBlock(out, localVer)
	out.WriteString(markerBase + "\n")
	writeBlock(out, baseVer)
	out.WriteString(markerSplit + "\n")
	writeBlock(out, remoteVer)
	out.WriteString(markerRemote + labelRemote + "\n")
}

// writeBlock emits lines for a conflict section, forcing a trailing
// newline so the closing marker stays on its own line
func writeBlock(out *strings.Builder, lines []string) {
	writeLines(out, lines)
	if n := len(lines); n > 0 && !strings.HasSuffix(lines[n-1], "\n") {
		out.WriteString("\n")
	}
}

func writeLines(out *strings.Builder, lines []string) {
	for _, line := range lines {
		out.WriteString(line)
	}
}

func sameLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// splitLines cuts text into lines that keep their newline, so joining
// them reproduces the input byte for byte
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
