/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package generator synthesizes fresh user records for each cycle.
package generator

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/gtechsltn/Bottleneck/model"
)

type Generator struct {
	faker  *gofakeit.Faker
	seeded bool
	now    func() time.Time
}

// New returns a generator backed by crypto-seeded randomness.
func New() *Generator {
	return &Generator{faker: gofakeit.NewCrypto(), now: time.Now}
}

// NewSeeded returns a generator whose output, ids included, is fully determined by seed and now.
func NewSeeded(seed int64, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{faker: gofakeit.New(seed), seeded: true, now: now}
}

// Generate returns n active users sharing one creation timestamp.
func (g *Generator) Generate(n int) model.Batch {
	if n <= 0 {
		return model.Batch{}
	}

	// Postgres keeps microseconds; anything finer would not survive a read back.
	createdAt := g.now().UTC().Truncate(time.Microsecond)

	batch := make(model.Batch, n)
	for i := range batch {
		batch[i] = model.UserRecord{
			ID:        g.newID(),
			Name:      g.faker.Name(),
			Email:     g.faker.Email(),
			CreatedAt: createdAt,
			IsActive:  true,
		}
	}
	return batch
}

func (g *Generator) newID() uuid.UUID {
	if !g.seeded {
		return uuid.New()
	}
	id, err := uuid.Parse(g.faker.UUID())
	if err != nil {
		return uuid.New()
	}
	return id
}
