// Package ordernum generates human readable order numbers.
package ordernum

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const suffixLen = 6

var suffixMax = new(big.Int).Exp(big.NewInt(36), big.NewInt(suffixLen), nil)

// ORD-<base36時刻>-<base36乱数>
// 一意性は確率的。衝突はordersのunique indexで弾かれる
func Generate(now time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	return "ORD-" + ts + "-" + randomSuffix()
}

func randomSuffix() string {
	n, err := rand.Int(rand.Reader, suffixMax)
	if err != nil {
		// crypto/randが失敗するのは異常時のみ。時刻ナノ秒で代用
		n = big.NewInt(time.Now().UnixNano())
		n.Mod(n, suffixMax)
	}
	s := strings.ToUpper(n.Text(36))
	if len(s) < suffixLen {
		s = strings.Repeat("0", suffixLen-len(s)) + s
	}
	return s
}
