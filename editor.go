// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

package img

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Editor accumulates archive edit operations and applies them on Commit.
// The source archive is never modified; Commit rebuilds into a new writer.
type Editor struct {
	src  *Archive
	ops  []editOperation
	opts EditOptions
}

// editOperation stores one staged editor operation.
type editOperation struct {
	inputs []Input
	names  []string
	kind   editOperationKind
}

// editOperationKind identifies staged edit action type.
type editOperationKind uint8

const (
	// editOperationAdd appends new entries and fails on existing name.
	editOperationAdd editOperationKind = iota + 1
	// editOperationReplace rewrites existing entries in place.
	editOperationReplace
	// editOperationDelete removes entries by name.
	editOperationDelete
)

// NewEditor creates a staged editor over src.
func NewEditor(src *Archive, opts EditOptions) (*Editor, error) {
	if src == nil {
		return nil, ErrNilReader
	}

	return &Editor{
		src:  src,
		opts: opts,
		ops:  make([]editOperation, 0, 8),
	}, nil
}

// Add schedules appending new entries; a name collision fails the plan.
func (e *Editor) Add(inputs ...Input) error {
	return e.stageInputs(editOperationAdd, inputs)
}

// Replace schedules replacing existing entries; a missing name fails the plan.
func (e *Editor) Replace(inputs ...Input) error {
	return e.stageInputs(editOperationReplace, inputs)
}

// Delete schedules removal of every entry matching one of names.
// Names that match nothing are ignored.
func (e *Editor) Delete(names ...string) error {
	if e == nil {
		return ErrNilReader
	}

	if len(names) == 0 {
		return nil
	}

	e.ops = append(e.ops, editOperation{
		kind:  editOperationDelete,
		names: slices.Clone(names),
	})

	return nil
}

// Count returns the number of entries the rebuild writes.
func (e *Editor) Count() (int, error) {
	plan, err := e.plan()
	if err != nil {
		return 0, err
	}

	return len(plan), nil
}

// Commit writes kept entries in source order with replacements in place,
// followed by added entries in staging order.
func (e *Editor) Commit(ctx context.Context, w Writer) (*PackResult, error) {
	plan, err := e.plan()
	if err != nil {
		return nil, err
	}

	return rewriteArchive(ctx, w, plan, e.opts.Pack)
}

// CommitVersion rebuilds into a new archive of version using the pack writer options.
// dir is required for VersionV1 and ignored for VersionV2.
func (e *Editor) CommitVersion(ctx context.Context, version Version, img io.WriteSeeker, dir io.Writer) (*PackResult, error) {
	plan, err := e.plan()
	if err != nil {
		return nil, err
	}

	w, err := NewWriter(version, img, dir, len(plan), e.opts.Pack.Writer)
	if err != nil {
		return nil, err
	}

	return rewriteArchive(ctx, w, plan, e.opts.Pack)
}

// stageInputs encodes names with the configured policy and stages one operation.
// Staged inputs carry the stored form of their names, so plan-time lookups and
// duplicate checks see the name the archive will hold.
func (e *Editor) stageInputs(kind editOperationKind, inputs []Input) error {
	if e == nil {
		return ErrNilReader
	}

	if len(inputs) == 0 {
		return nil
	}

	staged := slices.Clone(inputs)
	for i := range staged {
		field, err := EncodeNameWithPolicy(staged[i].Name, e.opts.Pack.Writer.NamePolicy)
		if err != nil {
			return err
		}

		staged[i].Name = DecodeName(field)
	}

	e.ops = append(e.ops, editOperation{
		kind:   kind,
		inputs: staged,
	})

	return nil
}

// plan applies staged operations to source entries and builds the write plan.
func (e *Editor) plan() ([]rewriteEntry, error) {
	if e == nil {
		return nil, ErrNilReader
	}

	plan := make([]rewriteEntry, 0, e.src.Len())
	for i, entry := range e.src.All() {
		plan = append(plan, rewriteEntry{
			name:   entry.Name,
			source: e.src,
			index:  i,
		})
	}

	for _, op := range e.ops {
		var err error
		switch op.kind {
		case editOperationAdd:
			plan, err = applyEditAdd(plan, op.inputs)
		case editOperationReplace:
			err = applyEditReplace(plan, op.inputs)
		case editOperationDelete:
			plan = applyEditDelete(plan, op.names)
		default:
			err = fmt.Errorf("unknown edit operation kind: %d", op.kind)
		}
		if err != nil {
			return nil, err
		}
	}

	return plan, nil
}

// applyEditAdd appends new entries and fails on existing names.
func applyEditAdd(plan []rewriteEntry, inputs []Input) ([]rewriteEntry, error) {
	for i := range inputs {
		if _, exists := findPlanEntry(plan, inputs[i].Name); exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateEntryName, inputs[i].Name)
		}

		plan = append(plan, rewriteEntry{
			name:  inputs[i].Name,
			input: &inputs[i],
		})
	}

	return plan, nil
}

// applyEditReplace swaps the payload of the first matching entry and keeps its stored name.
func applyEditReplace(plan []rewriteEntry, inputs []Input) error {
	for i := range inputs {
		at, exists := findPlanEntry(plan, inputs[i].Name)
		if !exists {
			return fmt.Errorf("%w: %q", ErrEntryNotFound, inputs[i].Name)
		}

		plan[at] = rewriteEntry{
			name:  plan[at].name,
			input: &inputs[i],
		}
	}

	return nil
}

// applyEditDelete removes all entries matching names.
func applyEditDelete(plan []rewriteEntry, names []string) []rewriteEntry {
	return slices.DeleteFunc(plan, func(item rewriteEntry) bool {
		return slices.ContainsFunc(names, func(name string) bool {
			return strings.EqualFold(item.name, name)
		})
	})
}

// findPlanEntry returns the index of the first item matching name case-insensitively.
func findPlanEntry(plan []rewriteEntry, name string) (int, bool) {
	at := slices.IndexFunc(plan, func(item rewriteEntry) bool {
		return strings.EqualFold(item.name, name)
	})

	return at, at >= 0
}
