package seedkit

import (
	"crypto/rand"
	"math/big"
	"strconv"

	"github.com/google/uuid"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	profileDivisor     = 6
)

// Score profile ranges, on a 0-100 scale.
const (
	strongMin   = 85.0
	strongRange = 13.0
	solidMin    = 70.0
	solidRange  = 15.0
	middleMin   = 55.0
	middleRange = 20.0
	weakMin     = 35.0
	weakRange   = 25.0
	wideMin     = 20.0
	wideRange   = 78.0
)

// Score profile cases.
const (
	caseStrongStudent = 0
	caseSolidStudent  = 1
	caseMiddleStudent = 2
	caseWeakStudent   = 3
	caseWideRange     = 4
)

// criterionSpec is one rubric dimension seeded into the event.
type criterionSpec struct {
	Name     string
	Weight   float64
	MaxScore float64
}

// defaultRubric is a conventional competency-exam rubric: relative
// weights, all criteria bounded at 100.
var defaultRubric = []criterionSpec{
	{Name: "Persiapan Kerja", Weight: 10, MaxScore: 100},
	{Name: "Proses Kerja", Weight: 40, MaxScore: 100},
	{Name: "Hasil Kerja", Weight: 30, MaxScore: 100},
	{Name: "Sikap Kerja", Weight: 10, MaxScore: 100},
	{Name: "Waktu", Weight: 10, MaxScore: 100},
}

var firstNames = []string{
	"Adi", "Ani", "Budi", "Citra", "Dewi", "Eko", "Fajar", "Gita",
	"Hana", "Indra", "Joko", "Kiki", "Lina", "Maya", "Nanda", "Putri",
	"Rizky", "Sari", "Tono", "Wulan",
}

var lastNames = []string{
	"Pratama", "Saputra", "Wijaya", "Lestari", "Santoso", "Utami",
	"Hidayat", "Kusuma", "Rahma", "Permata",
}

var classes = []string{"XII RPL 1", "XII RPL 2", "XII TKJ 1", "XII TKJ 2"}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using
// crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// pick returns a random element of the given list.
func pick(list []string) string {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(list))))
	return list[n.Int64()]
}

// generateRoster creates n students with unique NIS numbers, assigned to
// the given event.
func generateRoster(n int, eventID string) []student {
	roster := make([]student, n)
	for i := 0; i < n; i++ {
		roster[i] = student{
			Name:    pick(firstNames) + " " + pick(lastNames),
			Class:   pick(classes),
			NIS:     "2026" + strconv.Itoa(10000+i),
			EventID: eventID,
		}
	}
	return roster
}

// generateJudgeKey returns an unguessable access key secret.
func generateJudgeKey(index int) string {
	return "JURI-" + strconv.Itoa(index+1) + "-" + uuid.New().String()[:8]
}

// generateScores produces one judge's scores for a student: a student
// profile is drawn first, then every criterion scores within the
// profile's band so per-student results stay plausible.
func generateScores(criteria []criterion) map[string]float64 {
	min, span := profileBand()
	scores := make(map[string]float64, len(criteria))
	for _, c := range criteria {
		scores[c.ID] = min + getRandomFloat()*span
	}
	return scores
}

// profileBand draws a score band with a varied distribution.
func profileBand() (float64, float64) {
	n, _ := rand.Int(rand.Reader, big.NewInt(profileDivisor))
	switch n.Int64() {
	case caseStrongStudent:
		return strongMin, strongRange
	case caseSolidStudent:
		return solidMin, solidRange
	case caseMiddleStudent:
		return middleMin, middleRange
	case caseWeakStudent:
		return weakMin, weakRange
	case caseWideRange:
		return wideMin, wideRange
	default:
		return middleMin, middleRange
	}
}
