package flow

// Client-facing texts. The bot speaks Ukrainian.
const (
	msgGreeting = "Привіт! 👋 Щоб забронювати зустріч, натисніть /book.\n" +
		"Щоб переглянути заплановані зустрічі — /get_meetings."

	msgChooseDay = "Оберіть день зустрічі:"
	msgNoDays    = "На жаль, найближчим часом немає вільних днів. Спробуйте пізніше."

	msgChooseSlot     = "Оберіть час зустрічі:"
	msgNoSlotsThatDay = "На цей день вільних слотів немає. Оберіть, будь ласка, інший день."
	msgSlotTaken      = "На жаль, цей час щойно зайняли. Оберіть інший слот."

	msgAskName      = "Введіть ваше ім'я:"
	msgNameTooShort = "Ім'я має містити щонайменше 2 символи. Спробуйте ще раз:"

	msgAskReason    = "Опишіть коротко причину зустрічі (від 10 до 500 символів):"
	msgReasonLength = "Опис має містити від 10 до 500 символів. Спробуйте ще раз:"

	msgChooseFormat = "Оберіть формат зустрічі:"
	labelInPerson   = "Особиста зустріч"
	labelRemote     = "Онлайн"

	msgAskPhone = "Поділіться контактом кнопкою нижче або введіть номер телефону вручну:"
	msgPhoneFormat = "⚠️ Невірний формат номеру. Приклади:\n" +
		"• +380501234567\n" +
		"• 050-123-45-67\n" +
		"• +38 050 123 45 67"
	msgContactNoPhone = "⚠️ У вашому Telegram-контакті відсутній номер телефону.\n\n" +
		"Будь ласка, введіть його вручну, наприклад: +380501234567"

	msgAskEmail     = "Дякую! Тепер введіть email, на який буде надіслано запрошення:"
	msgEmailInvalid = "⚠️ Невірний формат email. Приклад: name@example.com. Спробуйте ще раз:"

	msgStale           = "Ця кнопка вже неактуальна. Щоб почати нове бронювання, натисніть /book."
	msgDidntUnderstand = "Я вас не зрозумів. Для початку бронювання натисніть /book."

	msgCommitFailed = "⚠️ Сталася помилка під час бронювання. Будь ласка, спробуйте пізніше через /book."

	msgBooked = "✅ Зустріч заброньовано!"

	msgUpcomingHeader = "Ось ваші зустрічі на найближчі 2 тижні:"
	msgNoUpcoming     = "❌ У вас немає запланованих зустрічей на наступні 2 тижні."
	msgUpcomingFailed = "⚠️ Сталася помилка під час отримання зустрічей. Спробуйте пізніше."
)
