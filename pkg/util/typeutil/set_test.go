// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package typeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	set := NewSet("elastic", "thermal")
	assert.True(t, set.Contain("elastic", "thermal"))
	assert.False(t, set.Contain("elastic", "honeycomb"))
	assert.Equal(t, 2, set.Len())

	assert.True(t, set.TryInsert("honeycomb"))
	assert.False(t, set.TryInsert("honeycomb"))

	set.Remove("thermal")
	assert.Equal(t, []string{"elastic", "honeycomb"}, SortedCollect(set))

	union := set.Union(NewSet("effective"))
	assert.Equal(t, []string{"effective", "elastic", "honeycomb"}, SortedCollect(union))
	assert.Equal(t, 2, set.Len())
}
