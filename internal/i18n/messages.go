package i18n

// translations maps language codes to message keys and their translations.
// English keys double as the English text.
var translations = map[string]map[string]string{
	"en": {
		"Welcome back, %s": "Welcome back, %s",
		"%d items":         "%d items",
	},
	"es": {
		"Home":                           "Inicio",
		"Catalogue":                      "Catálogo",
		"Basket":                         "Cesta",
		"Checkout":                       "Pagar",
		"Wishlist":                       "Lista de deseos",
		"My orders":                      "Mis pedidos",
		"Sign in":                        "Iniciar sesión",
		"Sign out":                       "Cerrar sesión",
		"Sign up":                        "Registrarse",
		"Search":                         "Buscar",
		"Add to basket":                  "Añadir a la cesta",
		"Your basket is empty":           "Tu cesta está vacía",
		"Product added to your basket":   "Producto añadido a tu cesta",
		"Basket updated":                 "Cesta actualizada",
		"Profile updated":                "Perfil actualizado",
		"Password changed":               "Contraseña cambiada",
		"Review submitted":               "Reseña enviada",
		"Added to your wishlist":         "Añadido a tu lista de deseos",
		"Removed from your wishlist":     "Eliminado de tu lista de deseos",
		"You have signed out":            "Has cerrado sesión",
		"Thank you for your order":       "Gracias por tu pedido",
		"Page not Found":                 "Página no encontrada",
		"Permission Denied":              "Permiso denegado",
		"Bad Request!":                   "¡Solicitud incorrecta!",
		"Server Error":                   "Error del servidor",
		"Language":                       "Idioma",
		"Welcome back, %s":               "Bienvenido de nuevo, %s",
		"%d items":                       "%d artículos",
		"Unable to log in with provided credentials": "No se puede iniciar sesión con las credenciales proporcionadas",
	},
	"fr": {
		"Home":                           "Accueil",
		"Catalogue":                      "Catalogue",
		"Basket":                         "Panier",
		"Checkout":                       "Commander",
		"Wishlist":                       "Liste de souhaits",
		"My orders":                      "Mes commandes",
		"Sign in":                        "Connexion",
		"Sign out":                       "Déconnexion",
		"Sign up":                        "Inscription",
		"Search":                         "Rechercher",
		"Add to basket":                  "Ajouter au panier",
		"Your basket is empty":           "Votre panier est vide",
		"Product added to your basket":   "Produit ajouté à votre panier",
		"Basket updated":                 "Panier mis à jour",
		"Profile updated":                "Profil mis à jour",
		"Password changed":               "Mot de passe modifié",
		"Review submitted":               "Avis envoyé",
		"Added to your wishlist":         "Ajouté à votre liste de souhaits",
		"Removed from your wishlist":     "Retiré de votre liste de souhaits",
		"You have signed out":            "Vous êtes déconnecté",
		"Thank you for your order":       "Merci pour votre commande",
		"Page not Found":                 "Page introuvable",
		"Permission Denied":              "Permission refusée",
		"Bad Request!":                   "Requête invalide !",
		"Server Error":                   "Erreur du serveur",
		"Language":                       "Langue",
		"Welcome back, %s":               "Bon retour, %s",
		"%d items":                       "%d articles",
		"Unable to log in with provided credentials": "Impossible de se connecter avec les identifiants fournis",
	},
}
