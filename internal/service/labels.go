package service

import (
	"strconv"
	"strings"

	"github.com/Dotaka123/worship-team-manager/internal/model"
)

// ── 面向成员的法语文案（邮件、导出） ──

var frenchMonths = [...]string{
	"Janvier", "Février", "Mars", "Avril", "Mai", "Juin",
	"Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre",
}

// monthLabel "2026-02" → "Février 2026"；格式无效时原样返回
func monthLabel(month string) string {
	if err := checkMonth(month); err != nil {
		return month
	}
	m, _ := strconv.Atoi(month[5:])
	return frenchMonths[m-1] + " " + month[:4]
}

// formatAmount 千分位以空格分隔：3000 → "3 000 Ar"
func formatAmount(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	out := sign + b.String()
	if currency != "" {
		out += " " + currency
	}
	return out
}

func paymentMethodLabel(method *string) string {
	if method == nil {
		return ""
	}
	switch *method {
	case model.PaymentMethodCash:
		return "Espèces"
	case model.PaymentMethodMobileMoney:
		return "Mobile Money"
	case model.PaymentMethodBank:
		return "Virement"
	case model.PaymentMethodOther:
		return "Autre"
	}
	return *method
}

func duesStatusLabel(status string) string {
	if status == model.DuesStatusPaid {
		return "Payé"
	}
	return "Non payé"
}

func attendanceStatusLabel(status string) string {
	switch status {
	case model.AttendancePresent:
		return "Présent"
	case model.AttendanceAbsent:
		return "Absent"
	case model.AttendanceExcused:
		return "Excusé"
	case model.AttendanceLate:
		return "En retard"
	}
	return status
}

func memberRoleLabel(role string) string {
	switch role {
	case model.MemberRoleSinger:
		return "Chanteur"
	case model.MemberRoleMusician:
		return "Musicien"
	case model.MemberRoleTechnician:
		return "Technicien"
	case model.MemberRoleOther:
		return "Autre"
	}
	return role
}

func memberStatusLabel(status string) string {
	switch status {
	case model.MemberStatusActive:
		return "Actif"
	case model.MemberStatusInactive:
		return "Inactif"
	case model.MemberStatusPaused:
		return "En pause"
	}
	return status
}

func genderLabel(g string) string {
	switch g {
	case model.GenderMale:
		return "Homme"
	case model.GenderFemale:
		return "Femme"
	}
	return ""
}
