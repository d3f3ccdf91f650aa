package coach

import (
	"regexp"
	"strconv"
	"strings"
)

// accentFold strips the Spanish diacritics that otherwise defeat the intent
// patterns ("día" vs "dia", "diseñar" vs "disenar").
var accentFold = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ü", "u", "Ñ", "n",
)

func foldMessage(s string) string {
	return strings.TrimSpace(strings.ToLower(accentFold.Replace(s)))
}

// Negations suppress plan generation even when an action verb appears.
var negationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bno (quiero|deseo|necesito).*\b(plan|rutina|horario)\b`),
	regexp.MustCompile(`\bsolo (hablar|conversar|charlar|preguntar|saber|entender)\b`),
	regexp.MustCompile(`\bno te pedi(.*)(plan|rutina|horario)\b`),
	regexp.MustCompile(`\bsin (plan|rutina|horario)\b`),
}

// Informational questions about how plans are built are not plan requests.
var infoOnlyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bque usas\b`),
	regexp.MustCompile(`\bcomo eliges\b`),
	regexp.MustCompile(`\bcomo decides\b`),
	regexp.MustCompile(`\bcriterios?\b`),
	regexp.MustCompile(`\bexplica(me)?\b`),
	regexp.MustCompile(`\b(quiero|quisiera) saber\b`),
	regexp.MustCompile(`\b(quiero|quisiera) entender\b`),
	regexp.MustCompile(`\ben base a que\b`),
	regexp.MustCompile(`\bpolitica de seleccion\b`),
}

var coreMentionRx = regexp.MustCompile(`\b(plan|rutina|programa|horario)\b`)

var actionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(quiero|quisiera|necesito|me gustaria|haz(me)?|dame|crea(r)?|arma(r)?|generar|elaborar|disenar|actualizar|cambiar|ajustar|modificar)\b`),
	regexp.MustCompile(`\b(nueva|otra)\s+(rutina|plan)\b`),
	regexp.MustCompile(`\b(poner|crear)\s+rutina\b`),
}

// WantsPlan reports whether a message is an explicit request to build or
// change a plan. force bypasses the detection entirely.
func WantsPlan(message string, force bool) bool {
	if force {
		return true
	}
	m := foldMessage(message)
	if m == "" {
		return false
	}

	for _, rx := range negationPatterns {
		if rx.MatchString(m) {
			return false
		}
	}
	for _, rx := range infoOnlyPatterns {
		if rx.MatchString(m) {
			return false
		}
	}

	if !coreMentionRx.MatchString(m) {
		return false
	}
	for _, rx := range actionPatterns {
		if rx.MatchString(m) {
			return true
		}
	}
	return false
}

var (
	weekRx = regexp.MustCompile(`semana\s+(\d{1,2})`)
	dayRx  = regexp.MustCompile(`dia\s+(\d{1,2})`)
)

// ExtractWeekDay pulls "semana N" and "día M" references out of a message.
// Zero means the token was absent.
func ExtractWeekDay(message string) (week, day int) {
	m := foldMessage(message)
	if match := weekRx.FindStringSubmatch(m); match != nil {
		week, _ = strconv.Atoi(match[1])
	}
	if match := dayRx.FindStringSubmatch(m); match != nil {
		day, _ = strconv.Atoi(match[1])
	}
	return week, day
}

var whatTodayRx = regexp.MustCompile(`\b(que me toca hoy|que entreno hoy|hoy que toca|que toca hoy)\b`)

// AsksWhatToday reports whether the user is asking which session is next.
func AsksWhatToday(message string) bool {
	return whatTodayRx.MatchString(foldMessage(message))
}

var showRoutineRx = regexp.MustCompile(`\b(mi rutina|ver rutina|mostrar rutina|que rutina tengo|cual es mi rutina)\b`)

// AsksShowRoutine reports whether the user wants their stored plan shown.
func AsksShowRoutine(message string) bool {
	return showRoutineRx.MatchString(foldMessage(message))
}
