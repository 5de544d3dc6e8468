// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pointer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/userdir/pkg/pointer"
)

func TestTo_Copies(t *testing.T) {
	city := "Lagos"
	p := pointer.To(city)
	city = "Accra"

	assert.Equal(t, "Lagos", *p)
}

func TestFallback(t *testing.T) {
	assert.Equal(t, "kept", pointer.Fallback(nil, "kept"))
	assert.Equal(t, "new", pointer.Fallback(pointer.To("new"), "kept"))
	assert.Equal(t, 0, pointer.Fallback(pointer.To(0), 7), "zero values still override")
}
