// Copyright 2026 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package state

import (
	"sync"
)

// Store holds the logical state of every registered pin.
// All pins start OFF.
type Store struct {
	mutex  sync.RWMutex
	states map[string]bool
}

// NewStore creates a store with an OFF entry for each of the given names.
func NewStore(names []string) *Store {
	s := &Store{
		states: make(map[string]bool, len(names)),
	}
	for _, name := range names {
		s.states[name] = false
	}
	return s
}

// Get returns the logical state of the pin with given name.
func (s *Store) Get(name string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.states[name]
}

// Set overwrites the logical state of the pin with given name.
// Returns false (without storing) if the name was not registered.
func (s *Store) Set(name string, value bool) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, found := s.states[name]; !found {
		return false
	}
	s.states[name] = value
	return true
}

// SnapshotAll returns a copy of all logical states.
func (s *Store) SnapshotAll() map[string]bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	result := make(map[string]bool, len(s.states))
	for k, v := range s.states {
		result[k] = v
	}
	return result
}
