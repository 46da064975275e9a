package service

import (
	"strings"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
)

// predefinedTemplates is the built-in catalog shown on the compose
// screen. Stored templates from notification_templates extend it.
var predefinedTemplates = []models.PredefinedTemplate{
	{
		ID:          "payment-reminder",
		Name:        "Pengingat Pembayaran",
		Description: "Mengingatkan wali santri tentang tagihan yang akan jatuh tempo",
		Category:    "PAYMENT",
		Title:       "Pengingat Pembayaran - {{bulan}}",
		Message:     "Assalamu'alaikum {{nama_wali}}, tagihan {{jenis_tagihan}} sebesar {{jumlah}} untuk ananda {{nama_santri}} akan jatuh tempo pada {{tanggal}}. Mohon segera melakukan pembayaran.",
		Type:        models.NotificationTypePaymentReminder,
		Channels:    []models.NotificationChannel{models.NotificationChannelInApp, models.NotificationChannelWhatsApp},
		Variables:   []string{"bulan", "nama_wali", "jenis_tagihan", "jumlah", "nama_santri", "tanggal"},
	},
	{
		ID:          "payment-confirmation",
		Name:        "Konfirmasi Pembayaran",
		Description: "Konfirmasi bahwa pembayaran telah diterima",
		Category:    "PAYMENT",
		Title:       "Pembayaran Diterima",
		Message:     "Alhamdulillah, pembayaran {{jenis_tagihan}} sebesar {{jumlah}} atas nama {{nama_santri}} telah kami terima pada {{tanggal}}. Jazakumullahu khairan.",
		Type:        models.NotificationTypePaymentConfirmation,
		Channels:    []models.NotificationChannel{models.NotificationChannelInApp, models.NotificationChannelEmail},
		Variables:   []string{"jenis_tagihan", "jumlah", "nama_santri", "tanggal"},
	},
	{
		ID:          "hafalan-progress",
		Name:        "Laporan Hafalan",
		Description: "Laporan perkembangan hafalan santri kepada wali",
		Category:    "ACADEMIC",
		Title:       "Perkembangan Hafalan {{nama_santri}}",
		Message:     "Ananda {{nama_santri}} telah menyelesaikan setoran {{surah}} ayat {{ayat}} dengan nilai {{nilai}}. Semoga Allah mudahkan hafalannya.",
		Type:        models.NotificationTypeHafalanProgress,
		Channels:    []models.NotificationChannel{models.NotificationChannelInApp, models.NotificationChannelWhatsApp},
		Variables:   []string{"nama_santri", "surah", "ayat", "nilai"},
	},
	{
		ID:          "attendance-alert",
		Name:        "Peringatan Kehadiran",
		Description: "Pemberitahuan ketika santri tidak hadir halaqah",
		Category:    "ACADEMIC",
		Title:       "Ketidakhadiran {{nama_santri}}",
		Message:     "Ananda {{nama_santri}} tidak hadir pada halaqah {{nama_halaqah}} tanggal {{tanggal}}. Mohon konfirmasi kepada musyrif.",
		Type:        models.NotificationTypeAttendanceAlert,
		Channels:    []models.NotificationChannel{models.NotificationChannelInApp, models.NotificationChannelWhatsApp, models.NotificationChannelSMS},
		Variables:   []string{"nama_santri", "nama_halaqah", "tanggal"},
	},
	{
		ID:          "general-announcement",
		Name:        "Pengumuman Umum",
		Description: "Pengumuman untuk seluruh pengguna",
		Category:    "GENERAL",
		Title:       "{{judul}}",
		Message:     "{{isi_pengumuman}}",
		Type:        models.NotificationTypeAnnouncement,
		Channels:    []models.NotificationChannel{models.NotificationChannelInApp},
		Variables:   []string{"judul", "isi_pengumuman"},
	},
	{
		ID:          "system-maintenance",
		Name:        "Pemeliharaan Sistem",
		Description: "Pemberitahuan jadwal pemeliharaan sistem",
		Category:    "SYSTEM",
		Title:       "Pemeliharaan Sistem",
		Message:     "Sistem akan menjalani pemeliharaan pada {{tanggal}} pukul {{jam}}. Layanan mungkin tidak tersedia selama {{durasi}}.",
		Type:        models.NotificationTypeSystemAlert,
		Channels:    []models.NotificationChannel{models.NotificationChannelInApp, models.NotificationChannelEmail},
		Variables:   []string{"tanggal", "jam", "durasi"},
	},
}

// renderTemplate substitutes {{name}} placeholders with the supplied
// variables. Unknown placeholders are left as-is so missing data is
// visible instead of silently blank.
func renderTemplate(text string, variables map[string]string) string {
	for name, value := range variables {
		text = strings.ReplaceAll(text, "{{"+name+"}}", value)
	}
	return text
}
