package realtime

func MessagesTopic(chatID string) string {
	return "messages:" + chatID
}

func UserChatsTopic(userID string) string {
	return "chats:user:" + userID
}

func LawyerRequestsTopic(lawyerID string) string {
	return "requests:lawyer:" + lawyerID
}

func ClientRequestsTopic(clientID string) string {
	return "requests:client:" + clientID
}

func PresenceTopic(userID string) string {
	return "presence:" + userID
}

func VideoSessionsTopic(ownerID string) string {
	return "video:" + ownerID
}
