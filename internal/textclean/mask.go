package textclean

import "regexp"

// blacklistPatterns remove boilerplate a compliance review would flag:
// copyright notices, contact blocks, recruiting spam, page footers, and
// confidentiality markers.
var blacklistPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)版权所有.*?\d{4}`),
	regexp.MustCompile(`(?i)未经许可.{0,10}不得转载`),
	regexp.MustCompile(`(?i)未经书面.{0,10}授权`),
	regexp.MustCompile(`(?i)微信.?号[:：]?\s*[\w\-]{5,}`),
	regexp.MustCompile(`(?i)公众号[:：].{5,}`),
	regexp.MustCompile(`(?i)招聘.{0,20}\d{3,}`),
	regexp.MustCompile(`(?i)电话[:：]?\d{7,}`),
	regexp.MustCompile(`(?i)地址[:：]?.{5,}路.{0,10}号`),
	regexp.MustCompile(`(?i)第\s*\d+\s*页\s*(?:/\s*共\s*\d+\s*页)?`),
	regexp.MustCompile(`(?i)机密.{0,10}保密级别`),
	regexp.MustCompile(`(?i)内部资料.{0,10}仅限内部`),
	regexp.MustCompile(`(?im)Confidential\s*$`),
	regexp.MustCompile(`(?im)Internal\s+Use\s+Only\s*$`),
	regexp.MustCompile(`(?im)Restricted\s*$`),
}

var (
	// Mainland mobile numbers: keep prefix 3 and suffix 4.
	reMobile = regexp.MustCompile(`1[3-9]\d{9}`)

	// 18-digit resident ID numbers: keep prefix 6 and suffix 4.
	reResidentID = regexp.MustCompile(`[1-6]\d{5}(18|19|20)\d{2}(0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01])\d{3}[\dXx]`)
)

// maskCompliance deletes blacklisted passages and masks phone and ID
// numbers in place.
func maskCompliance(text string) string {
	for _, pat := range blacklistPatterns {
		text = pat.ReplaceAllString(text, "")
	}
	text = reMobile.ReplaceAllStringFunc(text, func(m string) string {
		return m[:3] + "****" + m[len(m)-4:]
	})
	text = reResidentID.ReplaceAllStringFunc(text, func(m string) string {
		return m[:6] + "********" + m[len(m)-4:]
	})
	return text
}
