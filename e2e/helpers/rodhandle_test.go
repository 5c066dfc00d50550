package helpers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/gti/pagekit/e2e/pageobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ysmood/gson"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
	buf := new(bytes.Buffer)
	require.NoError(t, imaging.Encode(buf, img, imaging.PNG))
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) image.Point {
	t.Helper()
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img.Bounds().Size()
}

func TestDownscalePNG(t *testing.T) {
	t.Run("wider images are resized keeping aspect ratio", func(t *testing.T) {
		out, err := downscalePNG(encodePNG(t, 1280, 720), 640)
		require.NoError(t, err)
		assert.Equal(t, image.Pt(640, 360), decodeSize(t, out))
	})

	t.Run("narrow images are untouched", func(t *testing.T) {
		in := encodePNG(t, 320, 200)
		out, err := downscalePNG(in, 640)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("garbage is an error", func(t *testing.T) {
		_, err := downscalePNG([]byte("not a png"), 640)
		assert.ErrorContains(t, err, "failed to decode screenshot")
	})
}

func TestNullableString(t *testing.T) {
	assert.Nil(t, nullableString(gson.New(nil)))

	got := nullableString(gson.New("Welcome back"))
	require.NotNil(t, got)
	assert.Equal(t, "Welcome back", *got)

	empty := nullableString(gson.New(""))
	require.NotNil(t, empty)
	assert.Equal(t, "", *empty)
}

func TestTimeoutErr(t *testing.T) {
	deadline := fmt.Errorf("navigate: %w", context.DeadlineExceeded)

	err := timeoutErr(context.Background(), deadline)
	assert.True(t, pageobject.IsTimeout(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = timeoutErr(ctx, deadline)
	assert.False(t, pageobject.IsTimeout(err), "caller cancellation is not a local timeout")

	other := errors.New("net::ERR_CONNECTION_REFUSED")
	assert.Equal(t, other, timeoutErr(context.Background(), other))
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	page := (&rod.Page{}).Context(ctx)

	bounded, release := withTimeout(page, time.Hour)
	deadline, ok := bounded.GetContext().Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), deadline, time.Minute)
	assert.NoError(t, bounded.GetContext().Err())

	release()
	assert.ErrorIs(t, bounded.GetContext().Err(), context.Canceled, "timer is released, not left to fire")
	assert.NoError(t, page.GetContext().Err(), "caller context survives the release")
}
