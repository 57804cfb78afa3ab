package framestore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScheduleOverlapAndClamp(t *testing.T) {
	windows := Schedule(100, 30, 20)
	require.NotEmpty(t, windows)
	require.Equal(t, int32(0), windows[0].Begin)
	for i := 1; i < len(windows); i++ {
		require.LessOrEqual(t, windows[i-1].End, windows[i].End)
	}
	require.Equal(t, int32(100), windows[len(windows)-1].End)
}

func TestScheduleShortBatch(t *testing.T) {
	windows := Schedule(5, 30, 20)
	require.Equal(t, []Window{{Begin: 0, End: 5}}, windows)
}

func TestStoreAppendGetReplace(t *testing.T) {
	s := NewStore(2)
	f0 := &FrameInfo{}
	t0 := s.Append(f0)
	require.EqualValues(t, 0, t0)
	require.EqualValues(t, 1, s.Len())

	f1 := &FrameInfo{}
	s.Append(f1)
	require.Same(t, f0, s.Get(0))

	f0b := &FrameInfo{}
	s.Replace(0, f0b)
	require.Same(t, f0b, s.Get(0))
}
