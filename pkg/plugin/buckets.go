package plugin

import "time"

func calculateBuckets(start, end time.Time, bucketSeconds int32) int32 {
	buckets := int32(end.Sub(start).Seconds()) / bucketSeconds
	if buckets < 1 {
		buckets = 1
	}
	return buckets
}

// clampBucketSeconds widens the bucket so the time range fits in maxBuckets
// buckets. A zero interval means one-second buckets and a zero maxBuckets
// leaves the bucket width alone.
func clampBucketSeconds(start, end time.Time, bucketSeconds int32, maxBuckets int32) int32 {
	if bucketSeconds < 1 {
		bucketSeconds = 1
	}
	if maxBuckets < 1 {
		return bucketSeconds
	}
	if calculateBuckets(start, end, bucketSeconds) > maxBuckets {
		return int32(end.Sub(start).Seconds())/maxBuckets + 1
	}
	return bucketSeconds
}
