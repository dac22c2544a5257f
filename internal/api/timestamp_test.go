package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampAcross(t *testing.T) {
	ts := NewTimestamp(time.Date(2019, 12, 28, 1, 2, 3, 0, time.UTC))

	assert.Equal(t, int64(1577494923), ts.Unix())
	assert.Equal(t, "Sat, 28 Dec 2019 01:02:03 GMT", ts.Header())
	assert.Equal(t, "2019-12-28T01:02:03Z", ts.ISO())
}

func TestTimestampBackwards(t *testing.T) {
	t.Run("header", func(t *testing.T) {
		ts, err := ParseHeader("Fri, 26 Jul 2019 06:11:14 GMT")
		require.NoError(t, err)
		assert.Equal(t, "Fri, 26 Jul 2019 06:11:14 GMT", ts.Header())
		assert.Equal(t, int64(1564121474), ts.Unix())
	})

	t.Run("isotime", func(t *testing.T) {
		ts, err := ParseISO("2018-06-12T20:02:58Z")
		require.NoError(t, err)
		assert.Equal(t, "2018-06-12T20:02:58Z", ts.ISO())
	})

	t.Run("unix", func(t *testing.T) {
		ts := FromUnix(1564110674)
		assert.Equal(t, int64(1564110674), ts.Unix())

		parsed, err := ParseUnix("1564110674")
		require.NoError(t, err)
		assert.True(t, parsed.Equal(ts))
	})
}

func TestTimestampNoTimezoneDrift(t *testing.T) {
	zone := time.FixedZone("UTC+7", 7*60*60)
	local := time.Date(2019, 12, 28, 8, 2, 3, 0, zone)

	ts := NewTimestamp(local)
	assert.Equal(t, "2019-12-28T01:02:03Z", ts.ISO())

	fromHeader, err := ParseHeader(ts.Header())
	require.NoError(t, err)
	fromISO, err := ParseISO(ts.ISO())
	require.NoError(t, err)

	assert.True(t, fromHeader.Equal(ts))
	assert.True(t, fromISO.Equal(ts))
	assert.True(t, FromUnix(ts.Unix()).Equal(ts))
}

func TestTimestampOrdering(t *testing.T) {
	early := FromUnix(100)
	late := FromUnix(200)

	assert.True(t, early.Before(late))
	assert.True(t, late.After(early))
	assert.True(t, Latest(early, late).Equal(late))
	assert.True(t, Latest(late, early).Equal(late))
	assert.True(t, Latest(Timestamp{}, early).Equal(early))
	assert.True(t, Latest(early, Timestamp{}).Equal(early))
}

func TestTimestampParseErrors(t *testing.T) {
	_, err := ParseHeader("yesterday")
	assert.Error(t, err)
	_, err = ParseISO("2019-12-28 01:02:03")
	assert.Error(t, err)
	_, err = ParseUnix("soon")
	assert.Error(t, err)
}
