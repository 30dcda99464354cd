package moderation

// DefaultImagePrompt 要求模型只回答 APTA / NO_APTA。
const DefaultImagePrompt = `Analiza esta imagen y responde ÚNICAMENTE con "APTA" o "NO_APTA".

Una imagen es APTA si:
- Es apropiada para todo público
- No contiene contenido sexual, pornográfico o desnudos
- No contiene violencia extrema o gore
- Es relevante para contenido informativo/periodístico

Una imagen es NO_APTA si:
- Contiene desnudos o contenido sexual
- Muestra violencia extrema o sangre excesiva
- Es claramente inapropiada para menores

Responde solo: APTA o NO_APTA`

// DefaultTextPrompt 要求模型只回答 VALIDO / INVALIDO。
const DefaultTextPrompt = `Analiza el siguiente texto y fuentes, y responde ÚNICAMENTE con "VALIDO" o "INVALIDO".

El texto es VÁLIDO si:
- Tiene coherencia y estructura lógica
- Presenta información detallada y específica
- Las fuentes son enlaces válidos y relevantes
- No es claramente spam, troll, discurso de odio o sin sentido
- Tiene al menos 500 caracteres de contenido sustancial
- Las fuentes proporcionan contexto o evidencia

El texto es INVÁLIDO si:
- Es muy corto o sin información útil
- Es claramente spam, troll, discurso de odio o sin sentido
- Las fuentes no son relevantes o son falsas
- Contiene solo texto sin sentido
- No aporta información valiosa
- Contiene Scripts Sospechosos no relacionado a reproduccion multimedia

Responde solo: VALIDO o INVALIDO`
