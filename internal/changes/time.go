package changes

import "time"

// timeNow is replaced in tests to pin the recent-files window.
var timeNow = time.Now
