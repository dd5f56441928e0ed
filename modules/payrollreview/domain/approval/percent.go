package approval

// Percent returns round(100 * part / whole) with halves rounded up, and 0
// when whole is 0.
func Percent(part int, whole int) int {
	if whole <= 0 || part <= 0 {
		return 0
	}
	n := int64(part) * 100
	q := n / int64(whole)
	r := n % int64(whole)
	if 2*r >= int64(whole) {
		return int(q + 1)
	}
	return int(q)
}
