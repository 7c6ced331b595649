package session

// deadlineHeap orders images by deadline, then by session id so that sweeps are deterministic.
type deadlineHeap []*image

func (h deadlineHeap) Len() int {
	return len(h)
}

func (h deadlineHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].sessionID < h[j].sessionID
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h deadlineHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *deadlineHeap) Push(x interface{}) {
	img := x.(*image)
	img.index = len(*h)
	*h = append(*h, img)
}

func (h *deadlineHeap) Pop() interface{} {
	last := len(*h) - 1
	img := (*h)[last]
	(*h)[last] = nil
	*h = (*h)[:last]
	img.index = -1
	return img
}

// earliest returns the image with the closest deadline, or nil if the heap is empty.
func (h deadlineHeap) earliest() *image {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}
