package api

import "time"

// timeNow is replaced in tests that pin the default day.
var timeNow = time.Now
