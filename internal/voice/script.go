// Package voice turns the day's indicator snapshot into spoken narration:
// a Spanish script with numbers spelled out as words, synthesized through
// whichever TTS provider is configured.
package voice

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/finanzashoy/finvid/internal/fetch"
)

const notAvailable = "no disponible"

// BuildScript renders the narration text. Values are spelled out as words:
// every TTS voice tried so far mangles "$38.990,12" but reads
// "treinta y ocho mil novecientos noventa" cleanly.
func BuildScript(snap fetch.Snapshot) string {
	parts := []string{
		"Finanzas Hoy Chile.",
		fmt.Sprintf("Dólar: %s pesos.", sayInt(snap.DolarCLP)),
		fmt.Sprintf("UF: %s pesos.", sayInt(snap.UFCLP)),
		fmt.Sprintf("Cobre: %s dólares por libra.", sayFloat2(snap.CobreUSDLb)),
		fmt.Sprintf("Petróleo Brent: %s dólares por barril.", sayFloat2(snap.BrentUSD)),
		fmt.Sprintf("Bitcoin: %s dólares.", sayInt(snap.BTCUSD)),
		fmt.Sprintf("Ethereum: %s dólares.", sayInt(snap.ETHUSD)),
	}
	return cleanSpaces(strings.Join(parts, "\n"))
}

var spaceRun = regexp.MustCompile(`\s+`)

func cleanSpaces(s string) string {
	return spaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}

func sayInt(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return intToWords(int(math.Round(*v)))
}

// sayFloat2 speaks two decimals: 5.61 → "cinco coma sesenta y uno".
func sayFloat2(v *float64) string {
	if v == nil {
		return notAvailable
	}
	// Round to hundredths first so 4.996 carries into the whole part
	// instead of producing "coma cien".
	total := int(math.Round(math.Abs(*v) * 100))
	whole := total / 100
	cents := total % 100
	if *v < 0 {
		whole = -whole
	}
	if cents == 0 {
		return intToWords(whole)
	}
	return fmt.Sprintf("%s coma %s", intToWords(whole), intToWords(cents))
}

var units = []string{"cero", "uno", "dos", "tres", "cuatro", "cinco", "seis", "siete", "ocho", "nueve"}

var teens = map[int]string{
	10: "diez", 11: "once", 12: "doce", 13: "trece", 14: "catorce",
	15: "quince", 16: "dieciséis", 17: "diecisiete", 18: "dieciocho", 19: "diecinueve",
}

var tens = map[int]string{
	20: "veinte", 30: "treinta", 40: "cuarenta", 50: "cincuenta",
	60: "sesenta", 70: "setenta", 80: "ochenta", 90: "noventa",
}

var hundreds = map[int]string{
	100: "cien", 200: "doscientos", 300: "trescientos", 400: "cuatrocientos",
	500: "quinientos", 600: "seiscientos", 700: "setecientos", 800: "ochocientos", 900: "novecientos",
}

func words1to99(n int) string {
	switch {
	case n < 10:
		return units[n]
	case n <= 19:
		return teens[n]
	case n == 20:
		return "veinte"
	case n < 30:
		return "veinti" + units[n-20]
	}
	t := (n / 10) * 10
	u := n % 10
	if u == 0 {
		return tens[t]
	}
	return fmt.Sprintf("%s y %s", tens[t], units[u])
}

func words1to999(n int) string {
	if n < 100 {
		return words1to99(n)
	}
	if w, ok := hundreds[n]; ok {
		return w
	}
	h := (n / 100) * 100
	rest := n % 100
	if h == 100 {
		return "ciento " + words1to99(rest)
	}
	return hundreds[h] + " " + words1to99(rest)
}

func intToWords(n int) string {
	switch {
	case n < 0:
		return "menos " + intToWords(-n)
	case n < 1000:
		return words1to999(n)
	case n < 1_000_000:
		thousands := n / 1000
		rest := n % 1000
		head := "mil"
		if thousands > 1 {
			head = words1to999(thousands) + " mil"
		}
		if rest == 0 {
			return head
		}
		return head + " " + words1to999(rest)
	case n < 1_000_000_000:
		millions := n / 1_000_000
		rest := n % 1_000_000
		head := "un millón"
		if millions > 1 {
			head = intToWords(millions) + " millones"
		}
		if rest == 0 {
			return head
		}
		return head + " " + intToWords(rest)
	}
	// Off the narration scale; read digits rather than invent billions
	return fmt.Sprintf("%d", n)
}
