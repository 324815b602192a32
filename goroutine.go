package fakeit

import "runtime"

// currentGoroutineID parses the id out of the "goroutine N [status]:" header
// runtime.Stack writes for the calling goroutine. Singleton cells use it to
// spot a factory resolving its own key.
func currentGoroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	const prefix = "goroutine "
	if n <= len(prefix) {
		return 0
	}
	var id int64
	for _, ch := range buf[len(prefix):n] {
		if ch < '0' || ch > '9' {
			break
		}
		id = id*10 + int64(ch-'0')
	}
	return id
}
