// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatroom

import (
	"fmt"
	"sync"
	"time"

	"github.com/jeranaias/chatspaces/internal/model"
)

// DemoDatasetSize is the number of generated history entries.
const DemoDatasetSize = 100

// demoDataset is generated once per process. Entry i is "msg-i", alternates
// user/ai starting with user, and is i minutes older than process start, so
// index 0 is the newest.
var demoDataset = sync.OnceValue(func() []model.Message {
	start := time.Now().UTC()
	msgs := make([]model.Message, DemoDatasetSize)
	for i := range msgs {
		sender := model.SenderUser
		if i%2 == 1 {
			sender = model.SenderAI
		}
		msgs[i] = model.Message{
			ID:        fmt.Sprintf("msg-%d", i),
			Text:      fmt.Sprintf("Old message %d", DemoDatasetSize-i),
			Sender:    sender,
			Timestamp: start.Add(-time.Duration(i) * time.Minute),
		}
	}
	return msgs
})

// DemoDataset returns a copy of the demo dataset, newest first.
func DemoDataset() []model.Message {
	return model.CloneMessages(demoDataset())
}

// demoPages returns the first pages*size entries of the dataset in
// chronological order (oldest first).
func demoPages(pages, size int) []model.Message {
	data := demoDataset()
	n := pages * size
	if n > len(data) {
		n = len(data)
	}
	if n < 0 {
		n = 0
	}
	out := make([]model.Message, n)
	for i := 0; i < n; i++ {
		out[i] = data[n-1-i]
	}
	return out
}
