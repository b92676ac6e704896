// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatroom

import (
	"github.com/jeranaias/chatspaces/internal/model"
	"github.com/jeranaias/chatspaces/internal/notify"
)

// BeginningOfHistory is the notice sent once the demo dataset is exhausted.
const BeginningOfHistory = "You've reached the beginning of this chat."

// =============================================================================
// PAGINATOR
// =============================================================================

// Paginator reveals older pages of the demo dataset into a bootstrapped
// store. LoadOlder is safe to call repeatedly; once nothing is left it is a
// no-op. A Paginator is not safe for concurrent use; Session serialises it.
type Paginator struct {
	store    *MessageStore
	notifier *notify.Notifier
	pageSize int
	page     int
	notified bool
}

// NewPaginator creates a paginator starting at page 1.
func NewPaginator(store *MessageStore, pageSize int, notifier *notify.Notifier) *Paginator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Paginator{
		store:    store,
		notifier: notifier,
		pageSize: pageSize,
		page:     1,
	}
}

// Page returns the current page counter.
func (p *Paginator) Page() int {
	return p.page
}

// HasMore reports whether LoadOlder would reveal anything.
func (p *Paginator) HasMore() bool {
	return p.store.Bootstrapped() && p.page*p.pageSize < DemoDatasetSize
}

// LoadOlder reveals the next page and returns how many messages were added.
func (p *Paginator) LoadOlder() int {
	if !p.HasMore() {
		return 0
	}

	next := p.page + 1
	added := p.store.PrependOlder(demoPages(next, p.pageSize))
	p.page = next

	if !p.HasMore() && !p.notified {
		p.notified = true
		p.notifier.Info(BeginningOfHistory)
	}
	return added
}

// MergeOlder returns older followed by existing, skipping entries of older
// whose id already appears (in existing or earlier in older). Existing
// entries always win. Neither input is modified.
func MergeOlder(existing, older []model.Message) []model.Message {
	seen := make(map[string]struct{}, len(existing)+len(older))
	for _, m := range existing {
		seen[m.ID] = struct{}{}
	}

	out := make([]model.Message, 0, len(existing)+len(older))
	for _, m := range older {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return append(out, existing...)
}
