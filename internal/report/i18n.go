package report

// Source labels arrive in Russian; "ru" renderings pass them through
// unchanged, other languages go through this table and fall back to the
// source string when a label is missing.
var translations = map[string]map[string]string{
	"en": {
		"СТИРКА":    "WASHING",
		"КАПСУЛА":   "CAPSULE",
		"СУШКА":     "DRYING",
		"Свободно":  "Freely",
		"Занято":    "Occupied",
		"Отключено": "Disabled",
		"Оплачено":  "Paid for",
		"В ремонте": "Under repair",
	},
}

// freeLabel is the upstream status that renders with the green marker.
const freeLabel = "Свободно"

var statusHeader = map[string]string{
	"ru": "Состояние машин %s в %s:\n",
	"en": "Status of machines %s in %s:\n",
}

var statusHeaderNoTime = map[string]string{
	"ru": "Состояние машин:\n",
	"en": "Status of machines:\n",
}

var unavailableText = map[string]string{
	"ru": "В данный момент сервис недоступен, мы уже работаем над проблемой",
	"en": "The service is currently unavailable, we are already working on the problem",
}

var subPromptText = map[string]string{
	"ru": "Выберите машинки:",
	"en": "Choose machines:",
}

var subConfirmedText = map[string]string{
	"ru": "Вы подписались на машинки",
	"en": "You have subscribed to machines",
}

var unsubDoneText = map[string]string{
	"ru": "Вы отписались от всех уведомлений",
	"en": "You have unsubscribed from all notifications",
}

var descriptionText = map[string]string{
	"ru": "Вас приветствует WashBot - бот по отслеживанию 📈 статуса машин.\n\n" +
		"Устали каждый раз перезагружать <a href='%[1]s'>сайт</a> 🔄 в надежде на то, " +
		"что какая-нибудь машина освободится?" +
		" Теперь вы можете просто подписаться на уведомления 🔔 и быть первым," +
		" кто узнает об освободившейся машине!\n\n" +
		"Доступные команды:\n" +
		"/start - приветствие со списком доступных команд\n" +
		"/status - текущий статус машин\n" +
		"/sub - подписаться на уведомления\n" +
		"/unsub - отписаться от всех уведомлений\n\n" +
		"🌐 Данный бот является парсером и поэтому работает только с данными сайта.\n" +
		"🔄 Уведомления присылаются сразу же после обновления данных на сайте.\n" +
		"🛠️ Тех. поддержка и предложения по модернизации: <a href='%[2]s'>поддержка</a>\n\n" +
		"❗ Данный проект является некоммерческим и не имеет никакого отношения к" +
		" организации-поставщику услуг ❗",
	"en": "You are welcomed by the WashBot, a bot for tracking 📈 the status of machines.\n\n" +
		"Tired of reloading <a href='%[1]s'>the site</a> 🔄 every time in the hope that " +
		"some machine becomes free?" +
		" Now you can just subscribe to notifications 🔔 and be the first" +
		" to find out about the freed machine!\n\n" +
		"Available commands:\n" +
		"/start - greeting with a list of available commands\n" +
		"/status - current status of machines\n" +
		"/sub - subscribe to notifications\n" +
		"/unsub - unsubscribe from all notifications\n\n" +
		"🌐 This bot is a parser and therefore works only with site data.\n" +
		"🔄 Notifications are sent immediately after the data on the site updates.\n" +
		"🛠️ Support and upgrade suggestions: <a href='%[2]s'>support</a>\n\n" +
		"❗ This project is non-commercial and has nothing to do with" +
		" the service provider organization ❗",
}
