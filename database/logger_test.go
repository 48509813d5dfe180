/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFields(t *testing.T) {
	assert.Equal(t, "", formatFields())
	assert.Equal(t, " pool=main in_use=3", formatFields("pool", "main", "in_use", 3))
	assert.Equal(t, " k=v dangling", formatFields("k", "v", "dangling"))
}

func TestGetLoggerIsStable(t *testing.T) {
	l := GetLogger()
	assert.NotNil(t, l)
	InitLogger(NopLogger())
	assert.Same(t, l, GetLogger())
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.NotPanics(t, func() { NopLogger().Error("ignored", "k", 1) })
}
