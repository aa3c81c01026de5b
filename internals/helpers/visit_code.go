package helper

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"
)

// VisitCodePrefix ambil 3 huruf pertama nama sekolah (huruf saja, uppercase).
// Nama terlalu pendek di-pad dengan 'X' supaya format tetap 3 huruf.
func VisitCodePrefix(schoolName string) string {
	var b strings.Builder
	for _, r := range schoolName {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
			if b.Len() >= 3 {
				break
			}
		}
	}
	pfx := b.String()
	for len(pfx) < 3 {
		pfx += "X"
	}
	return pfx
}

// GenerateVisitCode: <PFX>-<tahun>-<4 digit dari unix-millis>.
// Keunikan global dijamin pemanggil (retry saat tabrakan).
func GenerateVisitCode(schoolName string, now time.Time) string {
	millis := fmt.Sprintf("%d", now.UnixMilli())
	suffix := millis[len(millis)-4:]
	return fmt.Sprintf("%s-%d-%s", VisitCodePrefix(schoolName), now.Year(), suffix)
}

// GeneratePaymentRef: referensi pembayaran eksternal, unik per inisialisasi.
func GeneratePaymentRef(now time.Time) string {
	const alnum = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 9)
	for i := range b {
		b[i] = alnum[rand.Intn(len(alnum))]
	}
	return fmt.Sprintf("GP-%d-%s", now.UnixMilli(), string(b))
}
