package http

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/volumekit/volumed/internal/vfs"
)

func TestSplitView(t *testing.T) {
	cases := []struct {
		wildcard string
		rel      string
		view     string
	}{
		{"/docs/a.txt", "docs/a.txt", ""},
		{"/docs/a.txt/info", "docs/a.txt", "info"},
		{"/docs/a.txt/binary", "docs/a.txt", "binary"},
		{"/info.txt", "info.txt", ""},
		{"/binary", "binary", ""},
		{"/", "", ""},
	}
	for _, tc := range cases {
		rel, view := splitView(tc.wildcard)
		assert.Equal(t, tc.rel, rel, tc.wildcard)
		assert.Equal(t, tc.view, view, tc.wildcard)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		kind error
		want int
	}{
		{vfs.ErrTraversal, http.StatusBadRequest},
		{vfs.ErrNotFound, http.StatusNotFound},
		{vfs.ErrExists, http.StatusConflict},
		{vfs.ErrNotDir, http.StatusBadRequest},
		{vfs.ErrIsDir, http.StatusBadRequest},
		{vfs.ErrEncoding, http.StatusBadRequest},
		{vfs.ErrPermission, http.StatusForbidden},
		{vfs.ErrIO, http.StatusInternalServerError},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(&vfs.Error{Op: "op", Path: "p", Kind: tc.kind}), tc.kind)
	}
}
